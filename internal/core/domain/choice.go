package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Preset values offered by the client for game type and stakes.
var (
	GameTypePresets = []string{"No Limit Hold'em", "Pot Limit Hold'em", "Omaha", "DBBP Omaha"}
	StakesPresets   = []string{"0.10/0.20", "0.25/0.50", "0.5/1", "1/2", "2/3", "5/10", "10/20", "25/50", "100/200"}
)

var errCustomPlaceholder = errors.New(`"Custom" must be replaced by the custom value`)

// choice is either one of a fixed list of presets or free custom text.
type choice struct {
	text   string
	custom bool
}

func (c choice) String() string { return c.text }

// IsCustom reports whether the value is free text rather than a preset.
func (c choice) IsCustom() bool { return c.custom }

// IsZero reports whether no value is set.
func (c choice) IsZero() bool { return c.text == "" }

func (c choice) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.text)
}

func parseChoice(s string, presets []string) (choice, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return choice{}, nil
	}
	if strings.EqualFold(s, "custom") {
		return choice{}, errCustomPlaceholder
	}
	for _, p := range presets {
		if strings.EqualFold(s, p) {
			return choice{text: p}, nil
		}
	}
	return choice{text: s, custom: true}, nil
}

func presetChoice(s string, presets []string) (choice, error) {
	for _, p := range presets {
		if strings.EqualFold(strings.TrimSpace(s), p) {
			return choice{text: p}, nil
		}
	}
	return choice{}, fmt.Errorf("unknown preset %q", s)
}

func customChoice(s string) (choice, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return choice{}, errors.New("custom value must not be empty")
	}
	return choice{text: s, custom: true}, nil
}

// GameType is a preset game (see GameTypePresets) or a custom game name.
type GameType struct{ choice }

// ParseGameType resolves s to a preset when it matches one, otherwise to a
// custom game type. An empty string yields the zero value.
func ParseGameType(s string) (GameType, error) {
	c, err := parseChoice(s, GameTypePresets)
	if err != nil {
		return GameType{}, fmt.Errorf("gameType: %w", err)
	}
	return GameType{c}, nil
}

// PresetGameType returns the preset named s.
func PresetGameType(s string) (GameType, error) {
	c, err := presetChoice(s, GameTypePresets)
	if err != nil {
		return GameType{}, fmt.Errorf("gameType: %w", err)
	}
	return GameType{c}, nil
}

// CustomGameType returns a free-text game type.
func CustomGameType(s string) (GameType, error) {
	c, err := customChoice(s)
	if err != nil {
		return GameType{}, fmt.Errorf("gameType: %w", err)
	}
	return GameType{c}, nil
}

// UnmarshalJSON accepts a plain string or {"preset": ...} / {"custom": ...}.
func (g *GameType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseGameType(s)
		if err != nil {
			return err
		}
		*g = parsed
		return nil
	}

	var obj struct {
		Preset string `json:"preset"`
		Custom string `json:"custom"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.New("gameType: expected a string or an object")
	}

	var (
		parsed GameType
		err    error
	)
	switch {
	case obj.Preset != "":
		parsed, err = PresetGameType(obj.Preset)
	case obj.Custom != "":
		parsed, err = CustomGameType(obj.Custom)
	default:
		err = errors.New("gameType: preset or custom is required")
	}
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Stakes is a preset blind level (see StakesPresets) or custom text such as
// "1/3 (Ante: 3) (Straddle: 6)".
type Stakes struct{ choice }

// ParseStakes resolves s to a preset when it matches one, otherwise to custom stakes.
func ParseStakes(s string) (Stakes, error) {
	c, err := parseChoice(s, StakesPresets)
	if err != nil {
		return Stakes{}, fmt.Errorf("stakes: %w", err)
	}
	return Stakes{c}, nil
}

// CustomStakes returns free-text stakes.
func CustomStakes(s string) (Stakes, error) {
	c, err := customChoice(s)
	if err != nil {
		return Stakes{}, fmt.Errorf("stakes: %w", err)
	}
	return Stakes{c}, nil
}

// StakesFromBlinds renders "sb/bb" with optional ante and straddle annotations.
func StakesFromBlinds(sb, bb, ante, straddle string) (Stakes, error) {
	sb, bb = strings.TrimSpace(sb), strings.TrimSpace(bb)
	if sb == "" || bb == "" {
		return Stakes{}, errors.New("stakes: small and big blind are required")
	}

	text := sb + "/" + bb
	if a := strings.TrimSpace(ante); a != "" {
		text += " (Ante: " + a + ")"
	}
	if s := strings.TrimSpace(straddle); s != "" {
		text += " (Straddle: " + s + ")"
	}
	return ParseStakes(text)
}

// UnmarshalJSON accepts a plain string, {"preset": ...}, {"custom": ...} or
// {"sb": ..., "bb": ..., "ante": ..., "straddle": ...}.
func (st *Stakes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseStakes(s)
		if err != nil {
			return err
		}
		*st = parsed
		return nil
	}

	var obj struct {
		Preset   string `json:"preset"`
		Custom   string `json:"custom"`
		SB       string `json:"sb"`
		BB       string `json:"bb"`
		Ante     string `json:"ante"`
		Straddle string `json:"straddle"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return errors.New("stakes: expected a string or an object")
	}

	var (
		parsed Stakes
		err    error
	)
	switch {
	case obj.Preset != "":
		var c choice
		c, err = presetChoice(obj.Preset, StakesPresets)
		if err != nil {
			err = fmt.Errorf("stakes: %w", err)
		}
		parsed = Stakes{c}
	case obj.Custom != "":
		parsed, err = CustomStakes(obj.Custom)
	default:
		parsed, err = StakesFromBlinds(obj.SB, obj.BB, obj.Ante, obj.Straddle)
	}
	if err != nil {
		return err
	}
	*st = parsed
	return nil
}
