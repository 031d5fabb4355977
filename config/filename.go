package config

import "unicode/utf8"

// MaxFileNameLen is the longest file name (in bytes) CleanFileName produces.
const MaxFileNameLen = 240

const badFileName = "_bad_file_name_"

func finishFileName(name string) string {
	if len(name) > MaxFileNameLen {
		cut := MaxFileNameLen
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	if len(name) == 0 {
		return badFileName
	}
	return name
}
