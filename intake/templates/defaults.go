package templates

// Fallback is returned by Get when neither the stored mapping nor the embedded
// defaults define a key.
const Fallback = "…"

// DefaultLanguage is consulted when a language has no default for a key.
const DefaultLanguage = "en"

// User-facing keys. These are the only keys the supervisor may edit.
const (
	KeyChooseLanguage  = "choose_language"
	KeyInvalidLanguage = "invalid_language"
	KeyFinal           = "final"
	KeyCancelled       = "cancelled"
	KeyEmptyAnswer     = "empty_answer"
)

// Supervisor-facing keys, looked up in the supervisor language.
const (
	KeyAccessDenied       = "access_denied"
	KeySettingsButton     = "settings_button"
	KeyAdminMenu          = "admin_menu"
	KeyAdminChooseKey     = "admin_choose_key"
	KeyAdminInvalid       = "admin_invalid"
	KeyAdminCurrent       = "admin_current"
	KeyAdminSaved         = "admin_saved"
	KeyAdminPersistFailed = "admin_persist_failed"
	KeyAdminBack          = "admin_back"
	KeyNotifyAnswer       = "notify_answer"
	KeyNotifySummary      = "notify_summary"
)

// Language is one entry of the fixed set of languages a user can pick.
type Language struct {
	Code    string
	Label   string
	Aliases []string
}

// Languages is the enumerated set accepted at the language prompt.
var Languages = []Language{
	{Code: "ru", Label: "РУССКИЙ", Aliases: []string{"русский", "рус", "ru", "russian"}},
	{Code: "en", Label: "ENGLISH", Aliases: []string{"english", "eng", "en", "английский"}},
}

// Reserved reports whether key names one of the fixed user or supervisor texts,
// which cannot double as a question key.
func Reserved(key string) bool {
	switch key {
	case KeyChooseLanguage, KeyInvalidLanguage, KeyFinal, KeyCancelled, KeyEmptyAnswer,
		KeyAccessDenied, KeySettingsButton, KeyAdminMenu, KeyAdminChooseKey, KeyAdminInvalid,
		KeyAdminCurrent, KeyAdminSaved, KeyAdminPersistFailed, KeyAdminBack,
		KeyNotifyAnswer, KeyNotifySummary:
		return true
	}
	return false
}

// EditableKeys lists the user-facing keys in menu order for the given questions.
func EditableKeys(questions []string) []string {
	keys := []string{KeyChooseLanguage}
	keys = append(keys, questions...)
	keys = append(keys, KeyFinal, KeyCancelled, KeyInvalidLanguage, KeyEmptyAnswer)
	return keys
}

// Defaults returns a fresh copy of the embedded text set.
func Defaults() Texts {
	return Texts{
		"ru": {
			KeyChooseLanguage:     "Выберите язык",
			KeyInvalidLanguage:    "Пожалуйста, выберите язык кнопкой.",
			"question_1":          "У вас были регистрации на международных сайтах знакомствах ранее?",
			"question_2":          "С какой целью интересует регистрация?",
			KeyFinal:              "Спасибо! Мы свяжемся с вами в ближайшее время",
			KeyCancelled:          "Отмена.",
			KeyEmptyAnswer:        "Пожалуйста, напишите ответ текстом.",
			KeyAccessDenied:       "Доступ запрещён.",
			KeySettingsButton:     "Настройки",
			KeyAdminMenu:          "Админка: выберите язык для редактирования:",
			KeyAdminChooseKey:     "Выберите текст для редактирования ({lang}):",
			KeyAdminInvalid:       "Пожалуйста, выберите кнопку.",
			KeyAdminCurrent:       "Текущий текст {key} ({lang}):\n\n{text}\n\nВведите новый текст:",
			KeyAdminSaved:         "Текст для {key} ({lang}) обновлён.",
			KeyAdminPersistFailed: "Текст для {key} ({lang}) изменён, но не сохранён на диск и пропадёт после перезапуска.",
			KeyAdminBack:          "Назад",
			KeyNotifyAnswer:       "Ответ пользователя {user} ({lang})\n{question}\n→ {answer}\n{link}",
			KeyNotifySummary:      "Анкета пользователя {user} ({lang}) завершена:\n{answers}\n{link}",
		},
		"en": {
			KeyChooseLanguage:     "Select language",
			KeyInvalidLanguage:    "Please choose a language using the buttons.",
			"question_1":          "Have you registered on any international dating sites before?",
			"question_2":          "What is your reason for signing up?",
			KeyFinal:              "Thank you! We will get in touch with you shortly.",
			KeyCancelled:          "Cancelled.",
			KeyEmptyAnswer:        "Please type your answer as text.",
			KeyAccessDenied:       "Access denied.",
			KeySettingsButton:     "Settings",
			KeyAdminMenu:          "Admin: choose a language to edit:",
			KeyAdminChooseKey:     "Choose a text to edit ({lang}):",
			KeyAdminInvalid:       "Please choose one of the buttons.",
			KeyAdminCurrent:       "Current text {key} ({lang}):\n\n{text}\n\nSend the new text:",
			KeyAdminSaved:         "Text {key} ({lang}) updated.",
			KeyAdminPersistFailed: "Text {key} ({lang}) changed but could not be saved; it will be lost on restart.",
			KeyAdminBack:          "Back",
			KeyNotifyAnswer:       "Answer from {user} ({lang})\n{question}\n→ {answer}\n{link}",
			KeyNotifySummary:      "Questionnaire from {user} ({lang}) completed:\n{answers}\n{link}",
		},
	}
}
