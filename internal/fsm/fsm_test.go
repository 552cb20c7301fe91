package fsm

import "testing"

type light string
type push string

func newLamp() *FSM[light, push] {
	m := New[light, push]("off")
	m.AddTransition(Transition[light, push]{From: "off", Event: "toggle", To: "on"})
	m.AddTransition(Transition[light, push]{From: "on", Event: "toggle", To: "off"})
	return m
}

func TestFireFollowsTable(t *testing.T) {
	m := newLamp()
	if !m.Fire("toggle") || m.State() != "on" {
		t.Fatalf("expected on, got %s", m.State())
	}
	if m.Fire("unplug") {
		t.Fatal("unknown event must not transition")
	}
	if m.State() != "on" {
		t.Fatalf("state drifted to %s", m.State())
	}
}

func TestCallbacksOrder(t *testing.T) {
	m := newLamp()
	var trace []string
	m.AddStateActions("off", StateActions{OnExit: func() { trace = append(trace, "exit-off") }})
	m.AddStateActions("on", StateActions{OnEnter: func() { trace = append(trace, "enter-on") }})
	m.AddTransition(Transition[light, push]{From: "off", Event: "toggle", To: "on",
		Action: func() { trace = append(trace, "action") }})

	m.Fire("toggle")
	want := []string{"exit-off", "action", "enter-on"}
	if len(trace) != len(want) {
		t.Fatalf("unexpected trace %v", trace)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("unexpected trace %v", trace)
		}
	}
}

func TestValidate(t *testing.T) {
	m := newLamp()
	m.AddStateActions("on", StateActions{})
	if err := m.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	m.AddStateActions("broken", StateActions{})
	if err := m.Validate(); err == nil {
		t.Fatal("expected unreachable state error")
	}
}

func TestCan(t *testing.T) {
	m := newLamp()
	if !m.Can("toggle") || m.Can("unplug") {
		t.Fatal("can reports wrong transitions")
	}
}
