package parser

import (
	"errors"
	"fmt"

	"github.com/fadilmartias/resume-screener/internal/model"
)

// Outcome records which layer produced the soft fields of a profile.
type Outcome string

const (
	OutcomeLLM      Outcome = "llm"
	OutcomeFallback Outcome = "fallback"
)

// ParsedProfile is the structured result of parsing one résumé. It is never
// persisted as its own entity.
type ParsedProfile struct {
	Name            string
	Email           string
	Phone           string
	Links           []string
	Skills          []string
	ExperienceYears float64
	Summary         string
	Education       []string
	RawText         string

	Outcome Outcome
	// LLMErr is why the LLM layer did not contribute; nil when Outcome is OutcomeLLM.
	LLMErr error
}

type Stage string

const (
	StageExtract Stage = "extract"
	StageClean   Stage = "clean"
)

var ErrEmptyText = errors.New("no text content after cleaning")

// Error is returned for every parse failure. Callers check it with errors.As.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse résumé (%s): %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// contacts is the deterministic layer; its fields are never overridden.
type contacts struct {
	Email string
	Phone string
	Links []string
}

// fields is the soft layer. A nil pointer or nil slice means "not provided",
// which lets a lower-precedence layer fill it in.
type fields struct {
	Name            *string
	Skills          []string
	ExperienceYears *float64
	Summary         *string
	Education       []string
}

// merge applies the precedence rules: deterministic contacts always win for
// email/phone/links, primary wins over fallback for everything else.
func merge(base contacts, primary, fallback fields, raw string) ParsedProfile {
	p := ParsedProfile{
		Email:   base.Email,
		Phone:   base.Phone,
		Links:   base.Links,
		RawText: raw,
	}

	p.Name = pickString(primary.Name, fallback.Name)
	p.Summary = pickString(primary.Summary, fallback.Summary)
	p.Skills = model.NormalizeSkills(pickSlice(primary.Skills, fallback.Skills))
	p.Education = pickSlice(primary.Education, fallback.Education)

	switch {
	case primary.ExperienceYears != nil:
		p.ExperienceYears = *primary.ExperienceYears
	case fallback.ExperienceYears != nil:
		p.ExperienceYears = *fallback.ExperienceYears
	}
	if p.ExperienceYears < 0 {
		p.ExperienceYears = 0
	}

	if p.Links == nil {
		p.Links = []string{}
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Education == nil {
		p.Education = []string{}
	}
	return p
}

func pickString(values ...*string) string {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return ""
}

func pickSlice(values ...[]string) []string {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
