package text

import (
	"sort"
	"strings"
)

// Voice describes one neural voice offered by the speech provider.
type Voice struct {
	ID          string
	Description string
}

// VoiceNames maps zh-CN neural voice identifiers to a short description.
var VoiceNames = map[string]string{
	"zh-CN-XiaoxiaoNeural":   "小小 - 女",
	"zh-CN-XiaohanNeural":    "小涵 - 女",
	"zh-CN-XiaomoNeural":     "小墨 - 女",
	"zh-CN-XiaoruiNeural":    "小蕊 - 女",
	"zh-CN-XiaoxuanNeural":   "小璇 - 女",
	"zh-CN-XiaomengNeural":   "小梦 - 女",
	"zh-CN-XiaoyouNeural":    "小优 - 女 - 儿童",
	"zh-CN-XiaoxinNeural":    "小欣 - 女",
	"zh-CN-XiaochenNeural":   "小陈 - 女",
	"zh-CN-XiaoqiuNeural":    "小秋 - 女",
	"zh-CN-XiaoshuangNeural": "小双 - 女性、儿童",
	"zh-CN-XiaoyanNeural":    "小妍 - 女",
	"zh-CN-XiaoyiNeural":     "小艺 - 女",
	"zh-CN-XiaozhenNeural":   "小珍 - 女",
	"zh-CN-YunfengNeural":    "云风 - 男",
	"zh-CN-YunhaoNeural":     "云浩 - 男",
	"zh-CN-YunjianNeural":    "云剑 - 男",
	"zh-CN-YunxiaNeural":     "云峡 - 男",
	"zh-CN-YunxiNeural":      "云溪 - 男",
	"zh-CN-YunyangNeural":    "云阳 - 男",
	"zh-CN-YunyeNeural":      "云烨 - 男",
	"zh-CN-YunzeNeural":      "云泽 - 男",
	"zh-CN-YunzheNeural":     "云哲 - 男",
}

// GetVoiceName returns the description for a voice identifier.
// If the identifier is not found, it returns the identifier itself.
func GetVoiceName(id string) string {
	if name, ok := VoiceNames[id]; ok {
		return name
	}
	return id
}

// IsKnownVoice checks if a voice identifier is in the catalog.
func IsKnownVoice(id string) bool {
	_, ok := VoiceNames[id]
	return ok
}

// VoiceLocale returns the locale prefix of a voice identifier
// ("zh-CN-YunzeNeural" -> "zh-CN").
func VoiceLocale(id string) string {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[0] + "-" + parts[1]
}

// Voices returns the catalog sorted by identifier.
func Voices() []Voice {
	voices := make([]Voice, 0, len(VoiceNames))
	for id, desc := range VoiceNames {
		voices = append(voices, Voice{ID: id, Description: desc})
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].ID < voices[j].ID })
	return voices
}
