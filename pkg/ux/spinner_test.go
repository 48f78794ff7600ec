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
	"time"

	"github.com/stretchr/testify/assert"
)

// TestSpinner_StartStop verifies the spinner goroutine shuts down cleanly.
func TestSpinner_StartStop(t *testing.T) {
	prev := GetPersonality().Level
	SetPersonalityLevel(PersonalityStandard)
	defer SetPersonalityLevel(prev)

	s := NewSpinner("working")
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.UpdateMessage("still working")
	s.Stop()

	// A second Stop must be a no-op, not a double close.
	s.Stop()
}

// TestSpinner_MachineMode verifies no goroutine starts when piped.
func TestSpinner_MachineMode(t *testing.T) {
	prev := GetPersonality().Level
	SetPersonalityLevel(PersonalityMachine)
	defer SetPersonalityLevel(prev)

	s := NewSpinner("working")
	s.Start()
	s.Stop()
	assert.False(t, s.isRunning)
}

// TestSpinner_DoubleStart verifies Start is idempotent while running.
func TestSpinner_DoubleStart(t *testing.T) {
	prev := GetPersonality().Level
	SetPersonalityLevel(PersonalityStandard)
	defer SetPersonalityLevel(prev)

	s := NewSpinner("working")
	s.Start()
	s.Start()
	s.Stop()
}
