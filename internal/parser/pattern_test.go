package parser

import "testing"

func TestPatternIncludeExclude(t *testing.T) {
	p := MustPattern([]string{"/MQTT.* error/i"}, []string{"/report .* error/i"})

	if !p.Match("MAIN: MQTT error") {
		t.Error("expected MQTT error to match")
	}
	if p.Match("MQTT: Report reboot error: 0110") {
		t.Error("expected excluded line not to match")
	}
	if p.Match("LORA: Accepted packet") {
		t.Error("expected unrelated line not to match")
	}
}

func TestPatternUnconfigured(t *testing.T) {
	p, err := NewPattern(nil, []string{"ignored"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Configured() {
		t.Error("expected nil include set to be unconfigured")
	}
	if p.Match("anything") {
		t.Error("expected unconfigured pattern never to match")
	}
}

func TestPatternConfiguredButEmpty(t *testing.T) {
	p, err := NewPattern([]string{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !p.Configured() {
		t.Error("expected empty include set to count as configured")
	}
	if p.Match("anything") {
		t.Error("expected empty include set to match nothing")
	}
}

func TestCompileMatcherSlashForm(t *testing.T) {
	cases := []struct {
		expr  string
		line  string
		match bool
	}{
		{"/sending uplink ok/i", "MQTT: Sending UPLINK OK", true},
		{"/sending uplink ok/", "MQTT: Sending UPLINK OK", false},
		{"Sending UPLINK OK", "MQTT: Sending UPLINK OK", true},
		{"(?i)sending uplink ok", "MQTT: Sending UPLINK OK", true},
		{"/dev/ttyAMA0", "opened /dev/ttyAMA0", true},
		{"^MON:", "MON: stack", true},
	}
	for _, tc := range cases {
		re, err := CompileMatcher(tc.expr)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.expr, err)
			continue
		}
		if got := re.MatchString(tc.line); got != tc.match {
			t.Errorf("%q against %q: expected %v, got %v", tc.expr, tc.line, tc.match, got)
		}
	}
}

func TestCompileMatcherInvalid(t *testing.T) {
	if _, err := CompileMatcher(`[invalid`); err == nil {
		t.Error("expected error for invalid regex")
	}
	if _, err := NewPattern([]string{"ok"}, []string{"/(unclosed/i"}); err == nil {
		t.Error("expected error for invalid exclude")
	}
}
