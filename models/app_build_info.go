// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "fmt"

// AppBuildInfo describes a qre binary: linker-injected release metadata plus
// the container format range the build can read and write.
type AppBuildInfo struct {
	buildVersion string
	buildDate    string
	buildCommit  string

	minFormat uint32
	maxFormat uint32
}

// NewAppBuildInfo constructs [AppBuildInfo]. Empty metadata is reported
// as "N/A".
func NewAppBuildInfo(buildVersion, buildDate, buildCommit string, minFormat, maxFormat uint32) AppBuildInfo {
	return AppBuildInfo{
		buildVersion: orNA(buildVersion),
		buildDate:    orNA(buildDate),
		buildCommit:  orNA(buildCommit),
		minFormat:    minFormat,
		maxFormat:    maxFormat,
	}
}

func (a AppBuildInfo) BuildVersion() string { return a.buildVersion }
func (a AppBuildInfo) BuildDate() string    { return a.buildDate }
func (a AppBuildInfo) BuildCommit() string  { return a.buildCommit }

// Formats returns the range of container versions this build reads; new
// files are always written at the upper bound.
func (a AppBuildInfo) Formats() string {
	return fmt.Sprintf("v%d-v%d (writes v%d)", a.minFormat, a.maxFormat, a.maxFormat)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
