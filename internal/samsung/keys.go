// Copyright 2025 Arion Yau
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package samsung

import (
	"fmt"
	"sort"
	"strings"
)

// KeyPrefix is the optional prefix callers may put in front of a catalog name
const KeyPrefix = "KEY_"

// Known key names, from the SamsungIPRemote key code list
var keyNames = []string{
	"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "11", "12", "4_3", "16_9", "3SPEED", "AD", "ADDDEL", "ALT_MHP", "ANGLE", "ANTENA", "ANYNET", "ANYVIEW", "APP_LIST", "ASPECT",
	"AUTO_ARC_ANTENNA_AIR", "AUTO_ARC_ANTENNA_CABLE", "AUTO_ARC_ANTENNA_SATELLITE", "AUTO_ARC_ANYNET_AUTO_START", "AUTO_ARC_ANYNET_MODE_OK", "AUTO_ARC_AUTOCOLOR_FAIL",
	"AUTO_ARC_AUTOCOLOR_SUCCESS", "AUTO_ARC_CAPTION_ENG", "AUTO_ARC_CAPTION_KOR", "AUTO_ARC_CAPTION_OFF", "AUTO_ARC_CAPTION_ON", "AUTO_ARC_C_FORCE_AGING",
	"AUTO_ARC_JACK_IDENT", "AUTO_ARC_LNA_OFF", "AUTO_ARC_LNA_ON", "AUTO_ARC_PIP_CH_CHANGE", "AUTO_ARC_PIP_DOUBLE", "AUTO_ARC_PIP_LARGE", "AUTO_ARC_PIP_LEFT_BOTTOM",
	"AUTO_ARC_PIP_LEFT_TOP", "AUTO_ARC_PIP_RIGHT_BOTTOM", "AUTO_ARC_PIP_RIGHT_TOP", "AUTO_ARC_PIP_SMALL", "AUTO_ARC_PIP_SOURCE_CHANGE", "AUTO_ARC_PIP_WIDE", "AUTO_ARC_RESET",
	"AUTO_ARC_USBJACK_INSPECT", "AUTO_FORMAT", "AUTO_PROGRAM", "AV1", "AV2", "AV3", "BACK_MHP", "BOOKMARK", "CALLER_ID", "CAPTION", "CATV_MODE", "CHDOWN", "CH_LIST", "CHUP", "CLEAR",
	"CLOCK_DISPLAY", "COMPONENT1", "COMPONENT2", "CONTENTS", "CONVERGENCE", "CONVERT_AUDIO_MAINSUB", "CUSTOM", "CYAN", "DEVICE_CONNECT", "DISC_MENU", "DMA", "DNET", "DNIe", "DNSe",
	"DOOR", "DOWN", "DSS_MODE", "DTV", "DTV_LINK", "DTV_SIGNAL", "DVD_MODE", "DVI", "DVR", "DVR_MENU", "DYNAMIC", "ENTERTAINMENT", "ESAVING", "EXT1", "EXT10", "EXT11", "EXT12", "EXT13",
	"EXT14", "EXT15", "EXT16", "EXT17", "EXT18", "EXT19", "EXT2", "EXT20", "EXT21", "EXT22", "EXT23", "EXT24", "EXT25", "EXT26", "EXT27", "EXT28", "EXT29", "EXT3", "EXT30", "EXT31", "EXT32",
	"EXT33", "EXT34", "EXT35", "EXT36", "EXT37", "EXT38", "EXT39", "EXT4", "EXT40", "EXT41", "EXT5", "EXT6", "EXT7", "EXT8", "EXT9", "FACTORY", "FAVCH", "FF", "FF_", "FM_RADIO", "GAME", "GREEN",
	"GUIDE", "HDMI", "HDMI1", "HDMI2", "HDMI3", "HDMI4", "HELP", "HOME", "ID_INPUT", "ID_SETUP", "INFO", "INSTANT_REPLAY", "LEFT", "LINK", "LIVE", "MAGIC_BRIGHT", "MAGIC_CHANNEL", "MDC",
	"MENU", "MIC", "MORE", "MOVIE1", "MS", "MTS", "MUTE", "NINE_SEPERATE", "OPEN", "PANNEL_CHDOWN", "PANNEL_CHUP", "PANNEL_ENTER", "PANNEL_MENU", "PANNEL_POWER", "PANNEL_SOURCE",
	"PANNEL_VOLDOW", "PANNEL_VOLUP", "PANORAMA", "PAUSE", "PCMODE", "PERPECT_FOCUS", "PICTURE_SIZE", "PIP_CHDOWN", "PIP_CHUP", "PIP_ONOFF", "PIP_SCAN", "PIP_SIZE", "PIP_SWAP", "PLAY",
	"PLUS100", "PMODE", "POWER", "POWEROFF", "POWERON", "PRECH", "PRINT", "PROGRAM", "QUICK_REPLAY", "REC", "RED", "REPEAT", "RESERVED1", "RETURN", "REWIND", "REWIND_", "RIGHT", "RSS",
	"RSURF", "SCALE", "SEFFECT", "SETUP_CLOCK_TIMER", "SLEEP", "SOURCE", "SRS", "STANDARD", "STB_MODE", "STILL_PICTURE", "STOP", "SUB_TITLE", "SVIDEO1", "SVIDEO2", "SVIDEO3", "TOOLS",
	"TOPMENU", "TTX_MIX", "TTX_SUBFACE", "TURBO", "TV", "TV_MODE", "UP", "VCHIP", "VCR_MODE", "VOLDOWN", "VOLUP", "WHEEL_LEFT", "WHEEL_RIGHT", "W_LINK", "YELLOW", "ZOOM1", "ZOOM2",
	"ZOOM_IN", "ZOOM_MOVE", "ZOOM_OUT",
}

var catalog map[Key]struct{}

func init() {
	catalog = make(map[Key]struct{}, len(keyNames))
	for _, name := range keyNames {
		catalog[Key(name)] = struct{}{}
	}
}

// IsValid reports whether raw names a catalog key, with or without the KEY_ prefix.
// Matching is case sensitive.
func IsValid(raw string) bool {
	_, ok := catalog[Key(strings.TrimPrefix(raw, KeyPrefix))]
	return ok
}

// ParseKey validates raw and returns the bare catalog key
func ParseKey(raw string) (Key, error) {
	if !IsValid(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, raw)
	}
	return Key(strings.TrimPrefix(raw, KeyPrefix)), nil
}

// ParseKeys validates every entry and fails on the first unknown key
func ParseKeys(raws []string) ([]Key, error) {
	keys := make([]Key, 0, len(raws))
	for _, raw := range raws {
		key, err := ParseKey(raw)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Keys returns the catalog in sorted order
func Keys() []Key {
	keys := make([]Key, 0, len(catalog))
	for key := range catalog {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
