package smsparser

// Category is one label from the closed category set.
type Category string

// Categories in first-match priority order. CategoryCash is only reachable
// through the ATM withdrawal branch.
const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryShopping      Category = "Shopping"
	CategoryBills         Category = "Bills"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryGroceries     Category = "Groceries"
	CategoryGeneral       Category = "General"
	CategoryCash          Category = "Cash"
)

const (
	// UnknownCounterparty is used when no candidate survives extraction.
	UnknownCounterparty = "Unknown"

	// ATMCounterparty is the fixed counterparty for cash withdrawals.
	ATMCounterparty = "ATM Withdrawal"
)

// relevanceKeywords mark a message as a candidate outgoing-money event.
var relevanceKeywords = []string{"sent", "debited", "spent", "paid", "trxn", "withdrawn"}

// bankingStopTerms disqualify a counterparty candidate outright.
var bankingStopTerms = map[string]struct{}{
	"kotak":   {},
	"bank":    {},
	"ac":      {},
	"account": {},
	"credit":  {},
	"debit":   {},
	"upi":     {},
}

// nameStopPhrases truncate a counterparty candidate. Matched lowercase.
var nameStopPhrases = []string{
	" on ",
	" from ",
	" ref ",
	" via ",
	" bal ",
	" ending ",
	".upi",
	" not ",
	" upi ",
	" for ",
}

type categoryRule struct {
	category Category
	keywords []string
}

// categoryRules is evaluated top to bottom; the first hit wins.
var categoryRules = []categoryRule{
	{CategoryFood, []string{"swiggy", "zomato", "dominos", "mcdonalds"}},
	{CategoryTransport, []string{"uber", "ola", "rapido", "petrol", "fuel"}},
	{CategoryShopping, []string{"amazon", "flipkart", "myntra", "ajio"}},
	{CategoryBills, []string{"jio", "airtel", "vi", "recharge"}},
	{CategoryEntertainment, []string{"netflix", "spotify", "movie"}},
	{CategoryHealth, []string{"apollo", "pharmacy", "medplus"}},
	{CategoryGroceries, []string{"blinkit", "bigbasket", "zepto", "grocery"}},
}
