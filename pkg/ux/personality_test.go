// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParsePersonalityLevel verifies string parsing with aliases.
func TestParsePersonalityLevel(t *testing.T) {
	assert.Equal(t, PersonalityStandard, ParsePersonalityLevel("standard"))
	assert.Equal(t, PersonalityStandard, ParsePersonalityLevel("s"))
	assert.Equal(t, PersonalityMinimal, ParsePersonalityLevel("min"))
	assert.Equal(t, PersonalityMachine, ParsePersonalityLevel("quiet"))
	assert.Equal(t, PersonalityStandard, ParsePersonalityLevel("bogus"))
}

// TestInitPersonality_EnvOverride verifies the environment wins over the
// terminal probe.
func TestInitPersonality_EnvOverride(t *testing.T) {
	prev := GetPersonality().Level
	defer SetPersonalityLevel(prev)

	t.Setenv("TRIAD_PERSONALITY", "machine")
	InitPersonality()
	assert.Equal(t, PersonalityMachine, GetPersonality().Level)
}

// TestSetPersonalityLevel verifies the setter round trip.
func TestSetPersonalityLevel(t *testing.T) {
	prev := GetPersonality().Level
	defer SetPersonalityLevel(prev)

	SetPersonalityLevel(PersonalityMinimal)
	assert.Equal(t, PersonalityMinimal, GetPersonality().Level)
}
