// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arty models the RGB LED peripheral of the Arty SoC.
//
// The peripheral exposes four 24-bit color registers, one per LED, on the
// CSR bus. Each 8-bit field of a register drives a free-running PWM
// generator, so the board carries twelve independent lines.
//
// The model itself lives in package leds. It is driven and observed by:
//   - leds/ledsdaq, which runs the peripheral as a TDAQ process,
//   - leds/ledsmqtt, which publishes register and wire snapshots over MQTT,
//   - conddb, which retrieves color presets from the configuration database,
//   - the rgbled-* commands under cmd.
//
// Package arty only reports the version of the module a command was built
// from.
package arty // import "github.com/go-lpc/arty"

import (
	"fmt"
	"runtime/debug"
)

const modPath = "github.com/go-lpc/arty"

// Version returns the version of the arty module a binary was built with,
// and its checksum.
// Commands built from within the module report the main module version
// (usually "(devel)").
// The returned values are empty for binaries built without module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}
	if b.Main.Path == modPath {
		return modVersion(&b.Main)
	}
	for _, m := range b.Deps {
		if m.Path == modPath {
			return modVersion(m)
		}
	}
	return "", ""
}

// modVersion describes m, taking a replace directive into account.
// A replacement without path nor version is flagged with a trailing '*'.
func modVersion(m *debug.Module) (version, sum string) {
	r := m.Replace
	switch {
	case r == nil:
		return m.Version, m.Sum
	case r.Path != "" && r.Version != "":
		return r.Path + " " + r.Version, r.Sum
	case r.Version != "":
		return r.Version, r.Sum
	case r.Path != "":
		return r.Path, r.Sum
	default:
		return fmt.Sprintf("%s*", m.Version), ""
	}
}
