// internal/qa/i18n/messages.go

// Package i18n holds the static language-selected messages used by the
// conversational handlers, the statistics handler and the answer generator.
// The catalog is deliberately small: it covers the languages of the news
// corpus, and anything else falls back to English.
package i18n

// Message keys.
const (
	KeyGreeting        = "greeting"
	KeyPrediction      = "prediction"
	KeySecurityWarning = "security_warning"
	KeyNoResults       = "no_results"
	KeyNoInformation   = "no_information"
	KeyRetrievalError  = "retrieval_error"
	KeyGenerationError = "generation_error"
	KeyStatisticsError = "statistics_error"
)

const fallbackLanguage = "en"

var catalog = map[string]map[string]string{
	"en": {
		KeyGreeting:        "Hello! I answer questions about the news. Ask me about events, statistics, or background on a topic.",
		KeyPrediction:      "I cannot make forecasts, but I can answer statistical questions about past news. Try asking, for example, about the most important news of a given period.",
		KeySecurityWarning: "This request cannot be processed. Please ask a regular question about the news.",
		KeyNoResults:       "No records matched your query.",
		KeyNoInformation:   "I could not find information about this in the news corpus.",
		KeyRetrievalError:  "Search is temporarily unavailable. Please try again later.",
		KeyGenerationError: "An error occurred while preparing the answer. Please try again later.",
		KeyStatisticsError: "The statistics service is temporarily unavailable. Please try again later.",
	},
	"az": {
		KeyGreeting:        "Salam! Mən xəbərlər haqqında suallara cavab verirəm. Hadisələr, statistika və ya mövzu haqqında soruşa bilərsiniz.",
		KeyPrediction:      "Proqnoz verə bilmirəm, amma keçmiş xəbərlər üzrə statistik suallara cavab verə bilərəm. Məsələn, müəyyən dövrün ən önəmli xəbərlərini soruşun.",
		KeySecurityWarning: "Bu sorğu emal edilə bilməz. Zəhmət olmasa xəbərlərlə bağlı adi sual verin.",
		KeyNoResults:       "Sorğunuza uyğun qeyd tapılmadı.",
		KeyNoInformation:   "Xəbər bazasında bu barədə məlumat tapa bilmədim.",
		KeyRetrievalError:  "Axtarış müvəqqəti əlçatan deyil. Bir azdan yenidən cəhd edin.",
		KeyGenerationError: "Cavab hazırlanarkən xəta baş verdi. Bir azdan yenidən cəhd edin.",
		KeyStatisticsError: "Statistika xidməti müvəqqəti əlçatan deyil. Bir azdan yenidən cəhd edin.",
	},
	"ru": {
		KeyGreeting:        "Здравствуйте! Я отвечаю на вопросы о новостях. Спросите о событиях, статистике или контексте темы.",
		KeyPrediction:      "Я не делаю прогнозов, но могу ответить на статистические вопросы о прошлых новостях. Например, спросите о самых важных новостях за период.",
		KeySecurityWarning: "Этот запрос не может быть обработан. Пожалуйста, задайте обычный вопрос о новостях.",
		KeyNoResults:       "По вашему запросу ничего не найдено.",
		KeyNoInformation:   "Я не нашёл информации об этом в новостной базе.",
		KeyRetrievalError:  "Поиск временно недоступен. Попробуйте позже.",
		KeyGenerationError: "Произошла ошибка при подготовке ответа. Попробуйте позже.",
		KeyStatisticsError: "Сервис статистики временно недоступен. Попробуйте позже.",
	},
}

// Message returns the catalog entry for the language, falling back to English
// for unknown languages or keys.
func Message(language, key string) string {
	if msgs, ok := catalog[language]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	return catalog[fallbackLanguage][key]
}

// Supported reports whether the catalog carries the language natively.
func Supported(language string) bool {
	_, ok := catalog[language]
	return ok
}
