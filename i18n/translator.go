package i18n

import (
	"sort"
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "field"); placeholders are written as {name}.
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogs = map[string]map[string]string{
	"en": {
		"declaration":       "invalid declaration",
		"duplicate_field":   "field {field} declared twice",
		"invalid_offset":    "invalid offset {offset}",
		"invalid_width":     "invalid width {width}",
		"bit_range":         "bits [{start}, {start}+{width}) outside {bits}-bit register",
		"invalid_reference": "invalid reference {ref}",
		"invalid_encoding":  "unsupported text encoding {encoding}",
		"static_mismatch":   "constant mismatch: expected {expected}, got {got}",
		"truncated":         "source exhausted: need {want} bytes at offset {offset}, have {got}",
		"read_failure":      "read failure at offset {offset}",
		"unknown_field":     "unknown field {field} in {schema}",
		"invalid_type":      "field {field} is {kind}, not {want}",
		"invalid_text":      "bytes are not valid {encoding} text",
		"invalid_count":     "invalid element count {count}",
		"invalid_length":    "invalid record length {length} (static size {size})",
	},
	"ja": {
		"declaration":       "宣言が不正です",
		"duplicate_field":   "フィールド {field} が重複しています",
		"invalid_offset":    "オフセット {offset} が不正です",
		"invalid_width":     "幅 {width} が不正です",
		"bit_range":         "ビット範囲 [{start}, {start}+{width}) が {bits} ビットのレジスタを超えています",
		"invalid_reference": "参照 {ref} が不正です",
		"invalid_encoding":  "未対応の文字エンコーディングです: {encoding}",
		"static_mismatch":   "定数が一致しません: 期待値 {expected}, 実際 {got}",
		"truncated":         "データが不足しています: オフセット {offset} に {want} バイト必要ですが {got} バイトしかありません",
		"read_failure":      "オフセット {offset} の読み込みに失敗しました",
		"unknown_field":     "{schema} に未知のフィールド {field} があります",
		"invalid_type":      "フィールド {field} は {kind} であり {want} ではありません",
		"invalid_text":      "{encoding} のテキストとして不正なバイト列です",
		"invalid_count":     "要素数 {count} が不正です",
		"invalid_length":    "レコード長 {length} が不正です (静的サイズ {size})",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalogs[t.lang][code]
	if !ok {
		msg, ok = catalogs["en"][code]
	}
	if !ok {
		return code
	}
	return expand(msg, data)
}

// expand substitutes {key} placeholders. Unknown placeholders are left as is.
func expand(msg string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", data[k])
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	mu.Lock()
	defer mu.Unlock()
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
