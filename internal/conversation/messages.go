// internal/conversation/messages.go
package conversation

const (
	msgCreateWalletFirst  = "Please use /start and create a wallet first."
	msgAskRecipient       = "Please enter the recipient's XRPL address:"
	msgInvalidRecipient   = "❌ That address is not valid or not activated on the XRPL testnet."
	msgAskAmount          = "How much XRP would you like to send? (e.g. 9.5)"
	msgInvalidAmount      = "❌ Invalid amount. Please enter a positive number such as 9.5."
	msgWalletMissing      = "We couldn't find your wallet. Please use /start and create a wallet first."
	msgBalanceUnavailable = "Could not verify your balance right now. Please try again later."
	msgInsufficientFunds  = "❌ Insufficient funds. You can send at most %s XRP (%s XRP must stay in the account as reserve)."
	msgInternalError      = "Something went wrong while accessing your wallet. Please try again later."
	msgPaymentFailed      = "❌ The payment could not be processed. Please try again later."
	msgPaymentSent        = "✅ Sent %s XRP to `%s`.\n\nTransaction hash: `%s`"
)
