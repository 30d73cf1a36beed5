// Package chat holds the platform-neutral vocabulary exchanged between the
// messaging adapter and the bot: inbound events and outbound replies.
package chat

type EventKind int

const (
	EventCommand EventKind = iota
	EventButton
	EventText
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventButton:
		return "button"
	case EventText:
		return "text"
	default:
		return "unknown"
	}
}

// Event is one inbound user action. Payload is the command name without the
// slash, the button callback data, or the raw message text.
type Event struct {
	Identity int64
	ChatID   int64
	Kind     EventKind
	Payload  string
}

type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardMainMenu
	KeyboardCreateWallet
)

// Reply is one outbound message.
type Reply struct {
	Text     string
	Markdown bool
	Keyboard Keyboard
}

// Emit delivers replies in order as they are produced.
type Emit func(Reply)

// Button callback payloads.
const (
	ButtonCreateWallet = "create_wallet"
	ButtonLearnMore    = "learn_more"
	ButtonBalance      = "check_balance"
	ButtonSend         = "send_xrp"
	ButtonPrice        = "view_price_history"
	ButtonHistory      = "transaction_history"
)

type Button struct {
	Label   string
	Payload string
}

// MainMenuButtons is the one-column main menu, top to bottom.
var MainMenuButtons = []Button{
	{Label: "Learn More About the Bot 📚", Payload: ButtonLearnMore},
	{Label: "Check Balance 💰", Payload: ButtonBalance},
	{Label: "Send XRP 💸", Payload: ButtonSend},
	{Label: "View Price History 📈", Payload: ButtonPrice},
	{Label: "Transaction History 📜", Payload: ButtonHistory},
}

var CreateWalletButtons = []Button{
	{Label: "Create Wallet 🚀", Payload: ButtonCreateWallet},
}

// IsMenuButton reports whether payload belongs to a known button.
func IsMenuButton(payload string) bool {
	if payload == ButtonCreateWallet {
		return true
	}
	for _, b := range MainMenuButtons {
		if b.Payload == payload {
			return true
		}
	}
	return false
}

func Text(s string) Reply {
	return Reply{Text: s}
}

func Markdown(s string) Reply {
	return Reply{Text: s, Markdown: true}
}

// MainMenu is the reply that presents the main menu.
func MainMenu() Reply {
	return Reply{Text: "What would you like to do next?", Keyboard: KeyboardMainMenu}
}

// Collector records emitted replies; handy in tests and batch callers.
type Collector struct {
	Replies []Reply
}

func (c *Collector) Emit(r Reply) {
	c.Replies = append(c.Replies, r)
}

// CountKeyboard counts replies carrying keyboard k.
func (c *Collector) CountKeyboard(k Keyboard) int {
	n := 0
	for _, r := range c.Replies {
		if r.Keyboard == k {
			n++
		}
	}
	return n
}
