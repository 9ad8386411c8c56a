package i18n

import "strings"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "max" or "field").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	var msg string
	switch t.lang {
	case "ja":
		switch code {
		case "content_disposition":
			msg = "フィールド名が不正です"
		case "field_type":
			msg = "フォームに存在しないフィールドです"
		case "duplicate_field":
			msg = "フィールドが重複しています"
		case "field_size":
			msg = "フィールドが大きすぎます (上限 {max} バイト)"
		case "file_size":
			msg = "ファイルが大きすぎます (上限 {max} バイト)"
		case "field_count":
			msg = "フィールド数が多すぎます (上限 {max})"
		case "file_count":
			msg = "ファイル数が多すぎます (上限 {max})"
		case "parse_field":
			msg = "UTF-8 として解釈できません"
		case "parse_int":
			msg = "整数として解釈できません"
		case "parse_float":
			msg = "数値として解釈できません"
		case "filename":
			msg = "ファイル名がありません"
		case "gen_filename":
			msg = "保存先を決定できません"
		case "mkdir":
			msg = "ディレクトリを作成できません"
		case "io":
			msg = "ファイルの書き込みに失敗しました"
		case "channel":
			msg = "内部チャネルエラー"
		case "multipart":
			msg = "マルチパートの読み込みに失敗しました"
		case "canceled":
			msg = "キャンセルされました"
		case "internal":
			msg = "内部エラー"
		}
	default: // "en"
		switch code {
		case "content_disposition":
			msg = "malformed field name"
		case "field_type":
			msg = "field is not declared by the form"
		case "duplicate_field":
			msg = "field submitted more than once"
		case "field_size":
			msg = "field too large (limit {max} bytes)"
		case "file_size":
			msg = "file too large (limit {max} bytes)"
		case "field_count":
			msg = "too many fields (limit {max})"
		case "file_count":
			msg = "too many files (limit {max})"
		case "parse_field":
			msg = "field is not valid UTF-8"
		case "parse_int":
			msg = "field is not an integer"
		case "parse_float":
			msg = "field is not a number"
		case "filename":
			msg = "file field has no filename"
		case "gen_filename":
			msg = "no storage path for upload"
		case "mkdir":
			msg = "could not create upload directory"
		case "io":
			msg = "could not write upload"
		case "channel":
			msg = "internal channel error"
		case "multipart":
			msg = "could not read multipart stream"
		case "canceled":
			msg = "canceled"
		case "internal":
			msg = "internal error"
		}
	}
	if msg == "" {
		return code
	}
	return expand(msg, data)
}

// expand replaces {key} placeholders; unknown placeholders are dropped along
// with a surrounding parenthetical.
func expand(msg string, data map[string]string) string {
	for k, v := range data {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	if i := strings.IndexByte(msg, '{'); i >= 0 {
		if j := strings.LastIndexAny(msg[:i], "(（"); j >= 0 {
			return strings.TrimRight(msg[:j], " ")
		}
		return strings.TrimRight(msg[:i], " ")
	}
	return msg
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
