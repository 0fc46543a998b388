package signal

import (
	"fmt"
	"sort"
)

type symbol struct {
	code     uint16
	extended bool
}

// Codes are the virtual key codes as used by the windows input API.
var symbols = func() map[string]symbol {
	result := map[string]symbol{
		"caps_lock":   {0x14, false},
		"scroll_lock": {0x91, false},
		"num_lock":    {0x90, true},
		"pause":       {0x13, false},

		"shift":   {0x10, false},
		"shift_l": {0xA0, false},
		"shift_r": {0xA1, false},
		"ctrl":    {0x11, false},
		"ctrl_l":  {0xA2, false},
		"ctrl_r":  {0xA3, true},
		"alt":     {0x12, false},
		"alt_l":   {0xA4, false},
		"alt_r":   {0xA5, true},
		"alt_gr":  {0xA5, true},
		"cmd":     {0x5B, true},
		"cmd_l":   {0x5B, true},
		"cmd_r":   {0x5C, true},
		"menu":    {0x5D, true},

		"space":        {0x20, false},
		"tab":          {0x09, false},
		"enter":        {0x0D, false},
		"esc":          {0x1B, false},
		"backspace":    {0x08, false},
		"delete":       {0x2E, true},
		"insert":       {0x2D, true},
		"home":         {0x24, true},
		"end":          {0x23, true},
		"page_up":      {0x21, true},
		"page_down":    {0x22, true},
		"up":           {0x26, true},
		"down":         {0x28, true},
		"left":         {0x25, true},
		"right":        {0x27, true},
		"print_screen": {0x2C, true},

		"media_play_pause":  {0xB3, true},
		"media_next":        {0xB0, true},
		"media_previous":    {0xB1, true},
		"media_volume_up":   {0xAF, true},
		"media_volume_down": {0xAE, true},
		"media_volume_mute": {0xAD, true},
	}
	for i := uint16(1); i <= 24; i++ {
		result[fmt.Sprintf("f%d", i)] = symbol{0x70 + i - 1, false}
	}
	return result
}()

// AllNames returns all symbolic signal names in sorted order.
func AllNames() []string {
	result := make([]string, 0, len(symbols))
	for name := range symbols {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}
