// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package interpret

import (
	"os"
	"strconv"

	"github.com/tidwall/gjson"
)

// Metric is one coverage dimension.
type Metric struct {
	Total   int     `json:"total"`
	Covered int     `json:"covered"`
	Skipped int     `json:"skipped"`
	Pct     float64 `json:"pct"`

	// Text is the percentage exactly as the coverage tool wrote it.
	Text string `json:"-"`

	// Known is false when the tool reported "Unknown" (nothing to measure).
	Known bool `json:"known"`
}

// Coverage is the aggregate coverage summary for one run.
type Coverage struct {
	Lines      Metric `json:"lines"`
	Branches   Metric `json:"branches"`
	Functions  Metric `json:"functions"`
	Statements Metric `json:"statements"`
}

// LinePct returns the line percentage text, or "" when unknown.
func (c *Coverage) LinePct() string {
	if c == nil || !c.Lines.Known {
		return ""
	}
	return c.Lines.Text
}

// ReadCoverage reads an Istanbul json-summary file.
//
// Coverage is optional: a missing or unusable file yields nil.
func ReadCoverage(path string) *Coverage {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return ParseCoverage(data)
}

// ParseCoverage extracts the "total" entry of a json-summary document.
func ParseCoverage(data []byte) *Coverage {
	if !gjson.ValidBytes(data) {
		return nil
	}
	total := gjson.GetBytes(data, "total")
	if !total.IsObject() || !total.Get("lines").Exists() {
		return nil
	}
	return &Coverage{
		Lines:      metricFrom(total.Get("lines")),
		Branches:   metricFrom(total.Get("branches")),
		Functions:  metricFrom(total.Get("functions")),
		Statements: metricFrom(total.Get("statements")),
	}
}

func metricFrom(r gjson.Result) Metric {
	m := Metric{
		Total:   int(r.Get("total").Int()),
		Covered: int(r.Get("covered").Int()),
		Skipped: int(r.Get("skipped").Int()),
	}
	pct := r.Get("pct")
	if pct.Type == gjson.Number {
		m.Pct = pct.Float()
		m.Text = pct.Raw
		m.Known = true
	} else if pct.Type == gjson.String {
		if f, err := strconv.ParseFloat(pct.Str, 64); err == nil {
			m.Pct = f
			m.Text = pct.Str
			m.Known = true
		}
	}
	return m
}
