// Package dialog orchestrates a caller turn: intent detection, entity
// extraction, policy checks, ledger mutation, and reply selection. Turns the
// deterministic pipeline cannot answer are delegated to the LLM provider.
package dialog

import (
	"strconv"
	"strings"
)

// Intent classifies what a caller utterance asks for. Detection is purely
// keyword-driven so that routing stays deterministic and auditable.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentGreeting
	IntentAudibility
	IntentThanks
	IntentGoodbye
	IntentConfirmYes
	IntentConfirmNo
	IntentFinalize
	IntentBilling
	IntentCancel
	IntentClear
	IntentUpdate
	IntentRemove
	IntentSummary
	IntentPrice
	IntentMenu
	IntentDescription
	IntentAdd
	IntentRestaurantInfo
)

// String returns the intent's wire name, used as a metric attribute.
func (i Intent) String() string {
	switch i {
	case IntentGreeting:
		return "greeting"
	case IntentAudibility:
		return "audibility"
	case IntentThanks:
		return "thanks"
	case IntentGoodbye:
		return "goodbye"
	case IntentConfirmYes:
		return "confirm_yes"
	case IntentConfirmNo:
		return "confirm_no"
	case IntentFinalize:
		return "finalize"
	case IntentBilling:
		return "billing"
	case IntentCancel:
		return "cancel"
	case IntentClear:
		return "clear"
	case IntentUpdate:
		return "update"
	case IntentRemove:
		return "remove"
	case IntentSummary:
		return "summary"
	case IntentPrice:
		return "price"
	case IntentMenu:
		return "menu"
	case IntentDescription:
		return "description"
	case IntentAdd:
		return "add"
	case IntentRestaurantInfo:
		return "restaurant_info"
	default:
		return "unknown"
	}
}

// Keyword tables, one per intent. Matching is substring-based over the
// normalized utterance, so multi-word phrases work without extra parsing.
var (
	greetingWords = []string{
		"hello", "hi ", "hey", "namaste", "good morning",
		"good afternoon", "good evening", "greetings",
	}
	audibilityPhrases = []string{
		"can you hear me", "are you there", "hello are you",
		"can you listen", "are you listening",
	}
	thanksPhrases = []string{
		"thank you", "thanks", "appreciate it", "thank u",
	}
	goodbyePhrases = []string{
		"bye", "goodbye", "see you", "farewell",
	}
	pricePhrases = []string{
		"price of", "how much is", "cost of", "price for",
		"what is the price", "how much does", "rate of", "rate for",
	}
	addPhrases = []string{
		"i want", "i need", "i would like", "can i get",
		"order", "add", "get me", "give me", "put in",
	}
	yesWords = []string{
		"yes", "yeah", "yep", "sure", "okay", "ok", "confirm",
		"correct", "go ahead", "proceed", "add it",
	}
	noWords = []string{
		"no", "nope", "nah", "dont", "not", "stop", "wait",
	}
	removePhrases = []string{
		"remove", "delete", "dont add", "take out",
		"get rid of", "eliminate",
	}
	cancelPhrases = []string{
		"cancel my order", "cancel the order", "cancel order",
		"cancel everything", "cancel it",
	}
	updatePhrases = []string{
		"change to", "make it", "update", "set to", "modify",
		"adjust", "only want", "want only",
	}
	menuPhrases = []string{
		"menu", "dishes", "food list", "what do you have",
		"what is available", "show menu",
	}
	finalizePhrases = []string{
		"place order", "finalize", "checkout", "complete order",
		"i am done", "done ordering", "ready to order", "place my order",
	}
	billingPhrases = []string{
		"bill", "billing", "total", "payment", "my bill", "final bill",
	}
	summaryPhrases = []string{
		"my order", "cart", "summary", "what i have",
		"current order", "show order",
	}
	clearPhrases = []string{
		"clear order", "clear my order", "reset order", "cancel all",
		"start over", "empty order",
	}
	describePhrases = []string{
		"what is", "tell me about", "describe", "what does",
	}
	restaurantPhrases = []string{
		"address", "location", "phone", "contact", "restaurant name",
		"your name", "where are you",
	}
)

// Detect classifies a normalized utterance. pending reports whether the
// previous turn asked a yes/no question; when set, affirmations and denials
// win over every other rule.
//
// Rule order matters: cancel, clear, and update before remove and summary
// ("cancel my order" carries "my order"), greeting only when no actionable
// keyword rides along.
func Detect(canonical string, pending bool) Intent {
	text := canonical
	words := strings.Fields(text)

	if pending {
		if startsWithAny(words, noWords, 2) {
			return IntentConfirmNo
		}
		if startsWithAny(words, yesWords, 3) {
			return IntentConfirmYes
		}
		if containsAny(text, yesWords) && !containsAny(text, noWords) {
			return IntentConfirmYes
		}
	}

	if containsAny(text, finalizePhrases) {
		return IntentFinalize
	}
	if containsAny(text, cancelPhrases) {
		return IntentCancel
	}
	if containsAny(text, clearPhrases) {
		return IntentClear
	}
	if containsAny(text, updatePhrases) {
		return IntentUpdate
	}
	if containsAny(text, removePhrases) {
		return IntentRemove
	}
	if containsAny(text, billingPhrases) {
		return IntentBilling
	}
	if containsAny(text, greetingWords) && !actionable(text) {
		return IntentGreeting
	}
	if containsAny(text, audibilityPhrases) {
		return IntentAudibility
	}
	if containsAny(text, thanksPhrases) && len(words) <= 3 {
		return IntentThanks
	}
	if containsAny(text, goodbyePhrases) && len(words) <= 3 {
		return IntentGoodbye
	}
	if containsAny(text, summaryPhrases) {
		return IntentSummary
	}
	if containsAny(text, pricePhrases) {
		return IntentPrice
	}
	if containsAny(text, restaurantPhrases) {
		return IntentRestaurantInfo
	}
	if containsAny(text, menuPhrases) {
		return IntentMenu
	}
	if containsAny(text, describePhrases) {
		return IntentDescription
	}
	if containsAny(text, addPhrases) || startsWithQuantity(words) {
		return IntentAdd
	}
	return IntentUnknown
}

// actionable reports whether the utterance carries a request beyond small
// talk ("hi, i want two naan" must route to add, not greeting).
func actionable(text string) bool {
	return containsAny(text, pricePhrases) ||
		containsAny(text, addPhrases) ||
		containsAny(text, updatePhrases) ||
		containsAny(text, removePhrases)
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// startsWithAny reports whether any of the first n words equals a keyword.
func startsWithAny(words, keywords []string, n int) bool {
	if len(words) < n {
		n = len(words)
	}
	for _, w := range words[:n] {
		for _, kw := range keywords {
			if w == kw {
				return true
			}
		}
	}
	return false
}

// startsWithQuantity reports whether the utterance opens with a count
// ("two paneer tikka" is an add even without an add keyword).
func startsWithQuantity(words []string) bool {
	if len(words) < 2 {
		return false
	}
	return isQuantityWord(words[0])
}

var quantityWords = map[string]struct{}{
	"one": {}, "two": {}, "three": {}, "four": {}, "five": {},
	"six": {}, "seven": {}, "eight": {}, "nine": {}, "ten": {},
	"another": {}, "additional": {}, "extra": {}, "more": {},
}

func isQuantityWord(w string) bool {
	if _, err := strconv.Atoi(w); err == nil {
		return true
	}
	_, ok := quantityWords[w]
	return ok
}
