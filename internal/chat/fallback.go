package chat

import (
	"strings"
	"unicode"
)

// Fallback topics, in match priority order.
const (
	TopicMultiAgent = "multi-agent"
	TopicPricing    = "pricing"
	TopicContact    = "contact"
	TopicServices   = "services"
	TopicGeneral    = "general"
)

// Reply languages.
const (
	LangEnglish = "en"
	LangDutch   = "nl"
)

type topicHint struct {
	topic    string
	keywords []string
}

var topicHints = []topicHint{
	{TopicMultiAgent, []string{"multi-agent", "multi agent", "multiagent", "agents", "agent"}},
	{TopicPricing, []string{"price", "pricing", "cost", "costs", "budget", "prijs", "prijzen", "kosten", "tarief"}},
	{TopicContact, []string{"contact", "call", "meeting", "email", "phone", "bellen", "afspraak", "telefoon", "mail"}},
	{TopicServices, []string{"service", "services", "offer", "help", "diensten", "dienst", "aanbod", "helpen"}},
}

var englishWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "are": {}, "what": {}, "how": {}, "can": {}, "do": {},
	"does": {}, "you": {}, "your": {}, "i": {}, "my": {}, "our": {}, "for": {}, "with": {},
	"to": {}, "and": {}, "about": {}, "please": {}, "hello": {}, "would": {}, "could": {},
	"have": {},
}

var fallbackReplies = map[string]map[string]string{
	TopicMultiAgent: {
		LangEnglish: "We design multi-agent systems where specialised AI agents work together on research, " +
			"drafting and review tasks. I can't give a detailed answer right now, but one of our consultants " +
			"would be happy to walk you through some examples. Could you share your email address?",
		LangDutch: "Wij ontwerpen multi-agent systemen waarin gespecialiseerde AI-agents samenwerken aan " +
			"onderzoek, schrijfwerk en controle. Ik kan nu geen uitgebreid antwoord geven, maar een van onze " +
			"consultants laat u graag voorbeelden zien. Wilt u uw e-mailadres delen?",
	},
	TopicPricing: {
		LangEnglish: "Pricing depends on the scope of the project. Most engagements start with a short " +
			"discovery phase so we can give you a fixed quote. If you share your email and a little about " +
			"your project, we'll send you an estimate.",
		LangDutch: "De prijs hangt af van de omvang van het project. De meeste trajecten beginnen met een " +
			"korte verkenningsfase zodat we een vaste offerte kunnen maken. Deel uw e-mailadres en iets over " +
			"uw project, dan sturen wij u een inschatting.",
	},
	TopicContact: {
		LangEnglish: "You can reach our team through the contact form on this page, or leave your email " +
			"address here and a consultant will get back to you within one business day.",
		LangDutch: "U kunt ons team bereiken via het contactformulier op deze pagina, of laat hier uw " +
			"e-mailadres achter en een consultant neemt binnen één werkdag contact met u op.",
	},
	TopicServices: {
		LangEnglish: "We help organisations put AI to work: knowledge retrieval over your own documents, " +
			"custom language model applications, workflow automation and strategic advice. Which of these " +
			"is most relevant to you?",
		LangDutch: "Wij helpen organisaties om AI in te zetten: kennisontsluiting over uw eigen documenten, " +
			"toepassingen met taalmodellen, automatisering van workflows en strategisch advies. Welke hiervan " +
			"is voor u het meest relevant?",
	},
	TopicGeneral: {
		LangEnglish: "Thanks for your message! I'm having trouble answering right now. Could you tell me a " +
			"bit more about what you're looking for, or leave your email so a consultant can follow up?",
		LangDutch: "Bedankt voor uw bericht! Ik kan op dit moment niet goed antwoorden. Kunt u iets meer " +
			"vertellen over wat u zoekt, of uw e-mailadres achterlaten zodat een consultant contact opneemt?",
	},
}

// FallbackReply is a canned response served when the model is unavailable.
type FallbackReply struct {
	Text  string
	Topic string
	Lang  string
}

// Fallback picks a deterministic reply for message. The result is never
// empty.
func Fallback(message string) FallbackReply {
	topic := fallbackTopic(message)
	lang := DetectLanguage(message)
	return FallbackReply{
		Text:  fallbackReplies[topic][lang],
		Topic: topic,
		Lang:  lang,
	}
}

func fallbackTopic(message string) string {
	lower := strings.ToLower(message)
	for _, hint := range topicHints {
		for _, kw := range hint.keywords {
			if strings.Contains(lower, kw) {
				return hint.topic
			}
		}
	}
	return TopicGeneral
}

// DetectLanguage returns LangEnglish when message contains a common English
// function word and LangDutch otherwise.
func DetectLanguage(message string) string {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	for _, w := range words {
		if _, ok := englishWords[w]; ok {
			return LangEnglish
		}
	}
	return LangDutch
}
