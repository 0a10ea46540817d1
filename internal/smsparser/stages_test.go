package smsparser

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestIsRelevant(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{"Rs 100 DEBITED from a/c", true},
		{"You have Sent money", true},
		{"Amount spent on card", true},
		{"Bill paid", true},
		{"Trxn of INR 20", true},
		{"Cash withdrawn", true},
		{"Your bill is unpaid", true},
		{"Rs 500 credited to your account", false},
		{"Your OTP is 4532, do not share", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			if got := IsRelevant(tt.body); got != tt.want {
				t.Errorf("IsRelevant(%q) = %v, want %v", tt.body, got, tt.want)
			}
		})
	}
}

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		body   string
		want   string
		wantOK bool
	}{
		{"Rs.200.00 spent", "200.00", true},
		{"INR 50 paid", "50", true},
		{"rs 1,000 sent", "1000", true},
		{"INR 1,23,456.78 debited", "123456.78", true},
		{"Sent Rs. 5", "5", true},
		{"INR12.5 paid", "12", true},
		{"Rs,500 paid", "500", true},
		{"Rs., 1,250.00 debited", "1250.00", true},
		{"Rs, balance low, paid", "", false},
		{"Your card ending 1234 was debited", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got, ok := ExtractAmount(tt.body)
			if ok != tt.wantOK {
				t.Fatalf("ExtractAmount(%q) ok = %v, want %v", tt.body, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Errorf("ExtractAmount(%q) = %s, want %s", tt.body, got, want)
			}
		})
	}
}

func TestExtractCounterparty(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"simple", "Rs 100 paid to Swiggy", "Swiggy"},
		{"bank then merchant", "debited from Kotak Bank to Vyapar Stores Ref 123", "Vyapar Stores Ref 123"},
		{"only a stop term", "Rs 200 sent to UPI", UnknownCounterparty},
		{"stop term is case insensitive", "Rs 200 paid at BANK", UnknownCounterparty},
		{"later candidate wins", "Rs 10 sent to Ramesh: also to Suresh", "Suresh"},
		{"stop term does not replace earlier pick", "Rs 10 sent to Ramesh: via upi", "Ramesh"},
		// A bare (?:to|at|via) would also open candidates inside words; the
		// word boundary is deliberate and these cases pin it.
		{"preposition must be a word", "Rs 99 debited for potato chips", UnknownCounterparty},
		{"preposition inside a merchant name", "Rs 45 paid to Atom Cafe", "Atom Cafe"},
		{"preposition suffix", "Rs 300 sent into savings", UnknownCounterparty},
		{"no preposition", "Rs 99 debited", UnknownCounterparty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCounterparty(tt.body); got != tt.want {
				t.Errorf("ExtractCounterparty(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestIsATMWithdrawal(t *testing.T) {
	if !IsATMWithdrawal("Rs 2000 withdrawn from ATM at MG Road") {
		t.Error("expected ATM withdrawal")
	}
	if IsATMWithdrawal("Rs 2000 withdrawn from branch") {
		t.Error("withdrawal without ATM should not match")
	}
	if IsATMWithdrawal("Rs 2000 paid at ATM kiosk") {
		t.Error("ATM without withdrawal should not match")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Zomato UPI Ref 888222. Bal", "Zomato"},
		{"Uber Rides on 10-Jan-25 via UPI", "Uber Rides"},
		{"Vyapar Stores Ref 123", "Vyapar Stores"},
		{"vyapar.123@hdfc", "Vyapar 123"},
		{"merchant.upi@okaxis", "Merchant"},
		{"AMAZON PAY", "Amazon Pay"},
		{"ramesh  kumar", "Ramesh Kumar"},
		// Stop phrases also match at the very end of the name.
		{"Ramesh for", "Ramesh"},
		{"Store on", "Store"},
		{"Fuel Station upi", "Fuel Station"},
		{"Store FROM city", "Store"},
		{" on Monday", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := NormalizeName(tt.raw); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		party string
		body  string
		want  Category
	}{
		{"Zomato", "", CategoryFood},
		{"Uber Rides", "", CategoryTransport},
		{"Amazon", "", CategoryShopping},
		{"Jio", "", CategoryBills},
		{"Netflix", "", CategoryEntertainment},
		{"Apollo", "", CategoryHealth},
		{"Blinkit", "", CategoryGroceries},
		{"Ramesh", "Rs 100 sent", CategoryGeneral},
		{"Swiggy", "paid with uber credits", CategoryFood},
		{UnknownCounterparty, "paid for fuel", CategoryTransport},
		{"David", "", CategoryBills},
	}

	for _, tt := range tests {
		t.Run(tt.party+"/"+string(tt.want), func(t *testing.T) {
			if got := Categorize(tt.party, tt.body); got != tt.want {
				t.Errorf("Categorize(%q, %q) = %q, want %q", tt.party, tt.body, got, tt.want)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory(" food "); !ok || c != CategoryFood {
		t.Errorf("ParseCategory(food) = %q, %v", c, ok)
	}
	if c, ok := ParseCategory("CASH"); !ok || c != CategoryCash {
		t.Errorf("ParseCategory(CASH) = %q, %v", c, ok)
	}
	if _, ok := ParseCategory("Travel"); ok {
		t.Error("ParseCategory(Travel) should fail")
	}
	if got := len(Categories()); got != 9 {
		t.Errorf("len(Categories()) = %d, want 9", got)
	}
}
