// internal/response/messages.go
package response

import (
	"fmt"

	"sahayak-workers/internal/models"
)

type messageKey string

const (
	msgFound             messageKey = "found"
	msgFoundOne          messageKey = "found_one"
	msgNoneFound         messageKey = "none_found"
	msgSMSOffer          messageKey = "sms_offer"
	msgEligible          messageKey = "eligible"
	msgIneligible        messageKey = "ineligible"
	msgAlternatives      messageKey = "alternatives"
	msgDetails           messageKey = "details"
	msgProfileUpdated    messageKey = "profile_updated"
	msgProfileSuperseded messageKey = "profile_superseded"
	msgClarifyRephrase   messageKey = "clarify_rephrase"
	msgClarifyReference  messageKey = "clarify_reference"
	msgClarifyValidation messageKey = "clarify_validation"
	msgClarifyRepeat     messageKey = "clarify_repeat"
	msgClarifySimple     messageKey = "clarify_simple"
	msgEscalate          messageKey = "escalate"
	msgHelp              messageKey = "help"
	msgUnavailable       messageKey = "unavailable"
	msgLanguageFallback  messageKey = "language_fallback"
)

// catalog holds the assistant's canned lines in both languages. Hindi
// phrasing avoids gendered verb forms so the same line works for any
// voice persona.
var catalog = map[messageKey]map[string]string{
	msgFound: {
		models.LanguageEnglish: "I found %d opportunities for you.",
		models.LanguageHindi:   "मुझे आपके लिए %d अवसर मिले हैं।",
	},
	msgFoundOne: {
		models.LanguageEnglish: "I found one opportunity for you.",
		models.LanguageHindi:   "मुझे आपके लिए एक अवसर मिला है।",
	},
	msgNoneFound: {
		models.LanguageEnglish: "Sorry, I could not find anything matching right now. Try different words or another kind of opportunity.",
		models.LanguageHindi:   "माफ़ कीजिए, अभी कोई मिलता-जुलता अवसर नहीं मिला। कृपया दूसरे शब्दों में या किसी और तरह का अवसर पूछें।",
	},
	msgSMSOffer: {
		models.LanguageEnglish: "Would you like the details by SMS?",
		models.LanguageHindi:   "क्या आप इसकी जानकारी SMS से पाना चाहेंगे?",
	},
	msgEligible: {
		models.LanguageEnglish: "Good news, you are eligible for %s.",
		models.LanguageHindi:   "अच्छी खबर, आप %s के लिए पात्र हैं।",
	},
	msgIneligible: {
		models.LanguageEnglish: "You do not qualify for %s at the moment.",
		models.LanguageHindi:   "आप अभी %s के लिए पात्र नहीं हैं।",
	},
	msgAlternatives: {
		models.LanguageEnglish: "There are %d similar options you may qualify for.",
		models.LanguageHindi:   "आपके लिए %d मिलते-जुलते विकल्प भी हैं।",
	},
	msgDetails: {
		models.LanguageEnglish: "Here are the full details of %s.",
		models.LanguageHindi:   "%s की पूरी जानकारी यह रही।",
	},
	msgProfileUpdated: {
		models.LanguageEnglish: "Done, your %s is now %s.",
		models.LanguageHindi:   "ठीक है, आपकी %s अब %s है।",
	},
	msgProfileSuperseded: {
		models.LanguageEnglish: "Your %s was changed again just now, so the newer value was kept.",
		models.LanguageHindi:   "आपकी %s की जानकारी अभी-अभी फिर से बदली गई, इसलिए नई जानकारी ही रखी गई है।",
	},
	msgClarifyRephrase: {
		models.LanguageEnglish: "Sorry, I did not catch that. Could you say it differently?",
		models.LanguageHindi:   "माफ़ कीजिए, यह समझ नहीं आया। कृपया दूसरे शब्दों में बताएं।",
	},
	msgClarifyReference: {
		models.LanguageEnglish: "I am not sure which one you mean by %q. Please say its name or its number in the list.",
		models.LanguageHindi:   "%q से आपका मतलब कौन-सा है, यह साफ़ नहीं हुआ। कृपया उसका नाम या सूची में नंबर बताएं।",
	},
	msgClarifyValidation: {
		models.LanguageEnglish: "That value does not look right: %s. Please tell me again.",
		models.LanguageHindi:   "यह जानकारी सही नहीं लगती: %s। कृपया दोबारा बताएं।",
	},
	msgClarifyRepeat: {
		models.LanguageEnglish: "Of course, here it is once more.",
		models.LanguageHindi:   "ज़रूर, एक बार फिर से बताते हैं।",
	},
	msgClarifySimple: {
		models.LanguageEnglish: "In one or two words: work, scheme, or studies?",
		models.LanguageHindi:   "एक-दो शब्दों में बताएं: काम, योजना, या पढ़ाई?",
	},
	msgEscalate: {
		models.LanguageEnglish: "I am handing this over to a support worker. They will reach out to you shortly.",
		models.LanguageHindi:   "आपकी बात हमारे सहायता कर्मी तक पहुंचाई जा रही है। वे जल्द ही आपसे संपर्क करेंगे।",
	},
	msgHelp: {
		models.LanguageEnglish: "You can ask me about work, government schemes, or education programs. You can also update your details, like your location or income.",
		models.LanguageHindi:   "आप मुझसे काम, सरकारी योजनाओं या पढ़ाई के अवसरों के बारे में पूछ सकते हैं। अपनी जानकारी, जैसे स्थान या आमदनी, भी बदलवा सकते हैं।",
	},
	msgUnavailable: {
		models.LanguageEnglish: "Sorry, the service is temporarily unavailable. Please try again in a little while.",
		models.LanguageHindi:   "माफ़ कीजिए, सेवा अभी कुछ देर के लिए उपलब्ध नहीं है। कृपया थोड़ी देर बाद फिर कोशिश करें।",
	},
	msgLanguageFallback: {
		models.LanguageEnglish: "Some details are only available in English.",
		models.LanguageHindi:   "इसकी कुछ जानकारी अभी केवल अंग्रेज़ी में उपलब्ध है।",
	},
}

// say returns the line for the language, falling back to English when the
// language has no entry.
func say(language string, key messageKey) string {
	texts, ok := catalog[key]
	if !ok {
		return ""
	}
	if text, ok := texts[language]; ok {
		return text
	}
	return texts[models.LanguageEnglish]
}

func sayf(language string, key messageKey, args ...interface{}) string {
	return fmt.Sprintf(say(language, key), args...)
}
