package scheduler

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"neopixel-controller/internal/core"
	"neopixel-controller/internal/settings"
)

// Directive replies.
const (
	MsgSaved        = "Settings saved."
	MsgReset        = "Reset to default settings."
	msgRestored     = "Mode restored to %s."
	msgSaveFailed   = "Failed to save settings: %v"
	msgNeedSave     = "Need to save new settings? %s"
	msgLastCommand  = "Last command: %s"
	msgLastChanged  = "Last command changed settings: %s"
	msgNoSavedState = "Saved settings: none (%v)"
)

// runDirective performs the side effect of a pending control directive and
// hands the mode back, so a directive never stays the rendering mode.
func (s *Scheduler) runDirective() {
	switch s.store.Snapshot().Mode {
	case core.DirectiveSave:
		restored := s.restore()
		if err := s.store.Persist(); err != nil {
			log.Printf("[Scheduler] %v", err)
			s.notifier.Notify(fmt.Sprintf(msgSaveFailed, err))
		} else {
			s.notifier.Notify(MsgSaved)
		}
		s.notifier.Notify(fmt.Sprintf(msgRestored, restored))

	case core.DirectiveReset:
		s.store.ApplyDefaults()
		s.notifier.Notify(MsgReset)

	case core.DirectiveMode:
		restored := s.restore()
		s.notifier.Notify(fmt.Sprintf(msgRestored, restored))
		snap := s.store.Snapshot()
		s.notifier.Notify(snap.Summary())

	case core.DirectiveInfo:
		restored := s.restore()
		s.notifier.Notify(fmt.Sprintf(msgRestored, restored))
		for _, line := range s.report() {
			s.notifier.Notify(line)
		}
	}
}

func (s *Scheduler) restore() core.Mode {
	var mode core.Mode
	s.store.Update(func(cfg *core.Settings) {
		mode, _ = cfg.RestorePreviousMode()
	})
	return mode
}

// report builds the info lines: device, defaults, current and saved settings
// with their fingerprints, the dirty flag and the command being handled.
func (s *Scheduler) report() []string {
	lines := []string{
		fmt.Sprintf("Device name: %s", s.opts.DeviceName),
		fmt.Sprintf("Number of LEDs: %d", s.strip.Len()),
		fmt.Sprintf("Settings file: %s", s.store.Path()),
	}
	lines = append(lines, describe("Default", s.store.Defaults())...)
	lines = append(lines, describe("Current", s.store.Snapshot())...)

	if saved, err := s.store.LoadSaved(); err != nil {
		lines = append(lines, fmt.Sprintf(msgNoSavedState, err))
	} else {
		lines = append(lines, describe("Saved", saved)...)
	}

	lines = append(lines,
		fmt.Sprintf(msgNeedSave, yesNo(s.store.IsDirty())),
		fmt.Sprintf(msgLastCommand, s.lastCommand),
		fmt.Sprintf(msgLastChanged, yesNo(s.lastChanged)),
	)
	return lines
}

func describe(label string, cfg core.Settings) []string {
	data, err := json.Marshal(cfg)
	if err != nil {
		data = []byte(err.Error())
	}
	return []string{
		fmt.Sprintf("%s settings: %s", label, data),
		fmt.Sprintf("%s settings hash: %s", label, settings.Fingerprint(cfg)),
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
