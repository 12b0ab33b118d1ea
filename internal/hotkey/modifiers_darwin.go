package hotkey

import "golang.design/x/hotkey"

func nativeModifiers(m Modifier) []hotkey.Modifier {
	var mods []hotkey.Modifier
	if m&ModControl != 0 {
		mods = append(mods, hotkey.ModCtrl)
	}
	if m&ModShift != 0 {
		mods = append(mods, hotkey.ModShift)
	}
	if m&ModAlt != 0 {
		mods = append(mods, hotkey.ModOption)
	}
	if m&ModSuper != 0 {
		mods = append(mods, hotkey.ModCmd)
	}
	return mods
}
