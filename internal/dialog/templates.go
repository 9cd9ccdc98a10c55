package dialog

import (
	"fmt"
	"strings"

	"github.com/voxmenu/voxmenu/internal/catalog"
	"github.com/voxmenu/voxmenu/internal/order"
)

// Deterministic reply templates. Every reply the pipeline can answer without
// the LLM comes from here, so transcripts stay stable across calls.

func replyGreeting() string {
	return "Hello! Welcome to our restaurant. How can I help you today?"
}

func replyAudibility() string {
	return "Yes, I can hear you. How can I help?"
}

func replyThanks() string {
	return "You're welcome."
}

func replyGoodbye() string {
	return "Goodbye! Thank you for visiting us. Have a great day!"
}

func replyNonEnglish() string {
	return "I'm sorry, I can only assist in English. Could you please repeat that in English?"
}

func replyPriceSingle(name string, price float64) string {
	return fmt.Sprintf("%s costs %.0f rupees", name, price)
}

func replyPriceMulti(lines []string) string {
	return strings.Join(lines, " | ")
}

func replyConfirmAdd(items []string, total float64) string {
	return fmt.Sprintf("Do you want to add %s for %.0f rupees to your order?", joinAnd(items), total)
}

func replyAdded(added []string, recap string) string {
	return fmt.Sprintf("Great! I've added %s. %s", strings.Join(added, ", "), recap)
}

func replyItemNotFound() string {
	return "Sorry, I couldn't find that item. Could you please say the exact dish name?"
}

func replyAmbiguous(candidates []string) string {
	return fmt.Sprintf("Did you mean %s?", strings.Join(candidates, " or "))
}

func replyClarification() string {
	return "Could you please clarify what you'd like?"
}

func replyCleared() string {
	return "I've cleared your entire order. Would you like to start fresh?"
}

func replyCancelled() string {
	return "I've cancelled your order. Let me know if you'd like to order something else."
}

func replyRemoved(names []string, recap string) string {
	joined := strings.Join(names, ", ")
	if recap == "" {
		return fmt.Sprintf("I removed %s. Your order is now empty.", joined)
	}
	return fmt.Sprintf("I removed %s. %s", joined, recap)
}

func replyNotInOrder() string {
	return "I couldn't find that item in your order."
}

func replyUpdated(name string, qty int, recap string) string {
	return fmt.Sprintf("Updated %s to %d. %s", name, qty, recap)
}

func replyUpdateMissing(name string) string {
	return fmt.Sprintf("%s is not in your order yet. Would you like to add it?", name)
}

func replyEmptyOrder() string {
	return "Your order is empty. Please add items first."
}

func replyNeedCustomer(missingName, missingPhone bool) string {
	var missing []string
	if missingName {
		missing = append(missing, "name")
	}
	if missingPhone {
		missing = append(missing, "phone number")
	}
	return fmt.Sprintf("Please provide your %s to confirm the order.", strings.Join(missing, " and "))
}

func replyConfirmOrder(snap order.Snapshot) string {
	return fmt.Sprintf("%s Shall I place the order?", snap.Describe())
}

func replyFinalized(snap order.Snapshot) string {
	return fmt.Sprintf("Perfect! Your order %s is confirmed for %s. We'll call you at %s when it's ready. Total: %.0f rupees. Thank you!",
		snap.ID, snap.Customer.Name, snap.Customer.Phone, snap.Total)
}

func replyDiscarded() string {
	return "Okay, I won't add that. Anything else?"
}

func replyClosed(openHour, closeHour int) string {
	return fmt.Sprintf("Sorry, we are closed right now. We take orders between %d:00 and %d:00.", openHour, closeHour)
}

func replyUnavailable(name string) string {
	return fmt.Sprintf("Sorry, %s is not available right now. Would you like something else?", name)
}

func replyBlocked() string {
	return "I can help with our menu and your order. What would you like to eat?"
}

func replyActionIncomplete() string {
	return "Sorry, I couldn't complete that just now. Could you try again in a moment?"
}

func replyRestaurantName(info catalog.RestaurantInfo) string {
	return fmt.Sprintf("Our restaurant name is %s.", info.Name)
}

func replyRestaurantAddress(info catalog.RestaurantInfo) string {
	return fmt.Sprintf("We are located at %s.", info.Address)
}

func replyRestaurantPhone(info catalog.RestaurantInfo) string {
	return fmt.Sprintf("You can reach us at %s.", info.Phone)
}

func replyMenuCategory(category string, names []string) string {
	return fmt.Sprintf("%s: %s", category, strings.Join(names, ", "))
}

func replyMenu(suggestions string) string {
	return "Here's our menu: " + suggestions
}

func replyDescription(item catalog.MenuItem) string {
	desc := item.Description
	if desc == "" {
		desc = "No description available"
	}
	out := fmt.Sprintf("%s: %s. Price: %.0f rupees", item.Name, desc, item.BasePrice)
	if len(item.Variants) > 0 {
		var sizes []string
		for _, v := range item.Variants {
			sizes = append(sizes, fmt.Sprintf("%s: %.0f rupees", v.Label, item.BasePrice+v.PriceDelta))
		}
		out += ". Available sizes: " + strings.Join(sizes, ", ")
	}
	out += "."
	if len(item.Allergens) > 0 {
		out += " Contains: " + strings.Join(item.Allergens, ", ") + "."
	}
	return out
}

func replyDishUnknown() string {
	return "I don't have information about that dish. Could you ask for something from our menu?"
}

// joinAnd renders "a", "a and b", "a, b and c" for spoken lists.
func joinAnd(items []string) string {
	if len(items) <= 1 {
		return strings.Join(items, "")
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

// describeEntity renders "2 Paneer Tikka (Large) with Extra Cheese" for add
// confirmations.
func describeEntity(name string, qty int, variant string, addons []string) string {
	out := fmt.Sprintf("%d %s", qty, name)
	if variant != "" {
		out += fmt.Sprintf(" (%s)", variant)
	}
	if len(addons) > 0 {
		out += " with " + strings.Join(addons, ", ")
	}
	return out
}
