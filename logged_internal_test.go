// data-tamer: in-process telemetry snapshotter
// Ported from PickNikRobotics/data_tamer
// SPDX-License-Identifier: BSD-3-Clause

package tamer

import "testing"

func TestLoggedValueSetAutoEnableReEnablesDisabledField(t *testing.T) {
	ch := NewLogChannel("demo", nil)
	lv, err := AddLoggedValue[float64](ch, "v")
	if err != nil {
		t.Fatal(err)
	}

	ch.SetEnabled(lv.id, false)
	if ch.series[lv.id.FirstIndex].enabled {
		t.Fatal("setup: field should be disabled")
	}

	lv.Set(1.5, true)
	if !ch.series[lv.id.FirstIndex].enabled {
		t.Error("Set with autoEnable=true must re-enable a disabled field")
	}
}

func TestLoggedValueSetWithoutAutoEnableLeavesFieldDisabled(t *testing.T) {
	ch := NewLogChannel("demo", nil)
	lv, err := AddLoggedValue[float64](ch, "v")
	if err != nil {
		t.Fatal(err)
	}

	ch.SetEnabled(lv.id, false)
	lv.Set(2.5, false)
	if ch.series[lv.id.FirstIndex].enabled {
		t.Error("Set with autoEnable=false must not change the enabled flag")
	}
}
