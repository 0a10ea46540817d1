package smsparser

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEvaluate_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantOutcome  Outcome
		wantAmount   string
		wantParty    string
		wantCategory Category
	}{
		{
			name:         "upi debit with trailing balance",
			body:         "Rs. 450.00 debited from a/c XX1234 on 12-Dec-25 to Zomato UPI Ref 888222. Bal: Rs 5000.",
			wantOutcome:  OutcomeParsed,
			wantAmount:   "450.00",
			wantParty:    "Zomato",
			wantCategory: CategoryFood,
		},
		{
			name:         "inr spent at merchant",
			body:         "INR 2500.50 spent at Uber Rides on 10-Jan-25 via UPI",
			wantOutcome:  OutcomeParsed,
			wantAmount:   "2500.50",
			wantParty:    "Uber Rides",
			wantCategory: CategoryTransport,
		},
		{
			name:         "person to person transfer",
			body:         "Rs. 1000 sent to Ramesh for Rent",
			wantOutcome:  OutcomeParsed,
			wantAmount:   "1000",
			wantParty:    "Ramesh",
			wantCategory: CategoryGeneral,
		},
		{
			name:         "atm withdrawal",
			body:         "Rs 2000 withdrawn from ATM at MG Road",
			wantOutcome:  OutcomeParsed,
			wantAmount:   "2000",
			wantParty:    ATMCounterparty,
			wantCategory: CategoryCash,
		},
		{
			name:         "bank name before merchant",
			body:         "Rs. 500 debited from Kotak Bank to Vyapar Stores Ref 123",
			wantOutcome:  OutcomeParsed,
			wantAmount:   "500",
			wantParty:    "Vyapar Stores",
			wantCategory: CategoryGeneral,
		},
		{
			name:        "otp message",
			body:        "Your OTP is 4532, do not share",
			wantOutcome: OutcomeFilteredOut,
		},
		{
			name:        "relevant but no amount",
			body:        "Money sent to Ramesh successfully",
			wantOutcome: OutcomeNoAmount,
		},
		{
			name:         "no candidate keeps unknown",
			body:         "Rs 75 debited from your account",
			wantOutcome:  OutcomeParsed,
			wantAmount:   "75",
			wantParty:    UnknownCounterparty,
			wantCategory: CategoryGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, outcome := Evaluate(tt.body)
			if outcome != tt.wantOutcome {
				t.Fatalf("Evaluate() outcome = %q, want %q", outcome, tt.wantOutcome)
			}
			if tt.wantOutcome != OutcomeParsed {
				if tx != nil {
					t.Errorf("Evaluate() tx = %+v, want nil", tx)
				}
				return
			}
			if tx == nil {
				t.Fatal("Evaluate() tx = nil, want transaction")
			}
			if want := decimal.RequireFromString(tt.wantAmount); !tx.Amount.Equal(want) {
				t.Errorf("Amount = %s, want %s", tx.Amount, want)
			}
			if tx.Counterparty != tt.wantParty {
				t.Errorf("Counterparty = %q, want %q", tx.Counterparty, tt.wantParty)
			}
			if tx.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", tx.Category, tt.wantCategory)
			}
			if tx.RawText != tt.body {
				t.Errorf("RawText = %q, want original body", tx.RawText)
			}
		})
	}
}

func TestParse_FirstAmountWins(t *testing.T) {
	tx, ok := Parse("Rs 120 paid to Swiggy. Avl Bal Rs 9,870.25")
	if !ok {
		t.Fatal("Parse() ok = false, want true")
	}
	if !tx.Amount.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Amount = %s, want 120", tx.Amount)
	}
}

func TestParse_ATMIgnoresMerchantKeywords(t *testing.T) {
	tx, ok := Parse("INR 500 WITHDRAWN at atm near Zomato office")
	if !ok {
		t.Fatal("Parse() ok = false, want true")
	}
	if tx.Counterparty != ATMCounterparty || tx.Category != CategoryCash {
		t.Errorf("got %q/%q, want %q/%q", tx.Counterparty, tx.Category, ATMCounterparty, CategoryCash)
	}
}

func TestParse_Idempotent(t *testing.T) {
	bodies := []string{
		"Rs. 450.00 debited from a/c XX1234 on 12-Dec-25 to Zomato UPI Ref 888222. Bal: Rs 5000.",
		"Your OTP is 4532, do not share",
		"Money sent to Ramesh successfully",
		"",
	}
	for _, body := range bodies {
		first, firstOutcome := Evaluate(body)
		second, secondOutcome := Evaluate(body)
		if firstOutcome != secondOutcome {
			t.Fatalf("outcomes differ for %q: %q vs %q", body, firstOutcome, secondOutcome)
		}
		if first == nil {
			if second != nil {
				t.Fatalf("results differ for %q", body)
			}
			continue
		}
		if !first.Amount.Equal(second.Amount) || first.Counterparty != second.Counterparty || first.Category != second.Category {
			t.Errorf("results differ for %q: %+v vs %+v", body, first, second)
		}
	}
}

func TestParse_ConcurrentCalls(t *testing.T) {
	const body = "INR 2500.50 spent at Uber Rides on 10-Jan-25 via UPI"

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, ok := Parse(body)
			if !ok || tx.Counterparty != "Uber Rides" {
				errs <- "unexpected result"
			}
		}()
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
}
