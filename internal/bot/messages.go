// internal/bot/messages.go
package bot

const (
	msgWelcomeBack    = "Welcome back! Your XRPL address is: `%s`"
	msgGreeting       = "Hello! 👋 It looks like you don't have an XRPL wallet with us yet. Click the button below to create one!"
	msgAlreadyHave    = "You already have a wallet! Here are your options:"
	msgGenerating     = "Generating your new XRPL wallet... 🛠️"
	msgCreateInFlight = "Your wallet is already being created. Please wait a moment."
	msgCreateFailed   = "Sorry, there was an error creating your wallet. Please try again later."
	msgCreateFirst    = "Please use /start and create a wallet first."
	msgFetchingPrices = "Fetching price history... 📈"
	msgPriceFailed    = "Sorry, I couldn't fetch the price history right now. Please try again later."
	msgBalanceFailed  = "Could not fetch your balance right now. Please try again later."
	msgHistoryFailed  = "Could not fetch your transactions right now. Please try again later."
	msgNoTransactions = "No payments found for your wallet yet."
	msgInternal       = "Sorry, something went wrong. Please try again later."
	msgUnknownCommand = "Sorry, I don't know that command. Try /help."
	msgUnknownAction  = "Sorry, that option is no longer available."
	msgTextHint       = "I didn't catch that. Use /start to see your options."
	msgBalance        = "💰 Your balance: *%s*\n\nAddress: `%s`"
	msgWalletCreated  = "🎉 Welcome! Your new XRPL wallet has been created and funded with test XRP.\n\n*Address:* `%s`\n\n*IMPORTANT:* We have securely stored your encrypted seed. You are responsible for your account's security."
	msgLearnMore      = "This bot manages a custodial wallet on the XRP Ledger *testnet*.\n\n" +
		"• Create a wallet funded with free test XRP\n" +
		"• Check your balance and recent payments\n" +
		"• Send XRP to any activated testnet address\n" +
		"• Follow the XRP price over the last 7 days\n\n" +
		"A minimum reserve always stays in your account. Test XRP has no real value."
	msgHelp = "Available commands:\n" +
		"/start - show your wallet or create one\n" +
		"/create - create a new testnet wallet\n" +
		"/balance - check your balance\n" +
		"/send - send XRP\n" +
		"/history - recent payments\n" +
		"/price - XRP price over the last 7 days\n" +
		"/help - this message"
)
