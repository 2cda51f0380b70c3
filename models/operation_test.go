package models

import "testing"

func TestOperationValidate(t *testing.T) {
	cases := []struct {
		name    string
		op      Operation
		wantErr bool
	}{
		{
			"valid deposit",
			Operation{Type: OpDeposit, Deposit: &DepositPayload{AccountID: "acc-1", Amount: 100}},
			false,
		},
		{
			"deposit without amount",
			Operation{Type: OpDeposit, Deposit: &DepositPayload{AccountID: "acc-1"}},
			true,
		},
		{
			"withdraw without nip",
			Operation{Type: OpWithdraw, Withdraw: &WithdrawPayload{AccountID: "acc-1", Amount: 100}},
			true,
		},
		{
			"withdraw with non-numeric nip",
			Operation{Type: OpWithdraw, Withdraw: &WithdrawPayload{AccountID: "acc-1", Amount: 100, NIP: "abcd"}},
			true,
		},
		{
			"transfer nip is optional",
			Operation{Type: OpTransfer, Transfer: &TransferPayload{SourceID: "acc-1", TargetID: "acc-2", Amount: 50}},
			false,
		},
		{
			"credit payment from account requires source",
			Operation{Type: OpPayCreditCard, PayCreditCard: &PayCreditCardPayload{CardNumber: "4111", Amount: 100}},
			true,
		},
		{
			"credit payment in cash needs no source",
			Operation{Type: OpPayCreditCard, PayCreditCard: &PayCreditCardPayload{CardNumber: "4111", Amount: 100, IsCash: true}},
			false,
		},
		{
			"issue card with unknown type",
			Operation{Type: OpIssueDebitCard, IssueDebitCard: &IssueDebitCardPayload{AccountID: "acc-1", CardType: "SILVER"}},
			true,
		},
		{
			"customer with bad email",
			Operation{Type: OpCreateCustomer, CreateCustomer: &CreateCustomerPayload{Name: "Иван", Email: "not-an-email"}},
			true,
		},
		{
			"interest needs no payload",
			Operation{Type: OpApplyInterest},
			false,
		},
	}

	for _, c := range cases {
		err := c.op.Validate()
		if (err != nil) != c.wantErr {
			t.Errorf("%s: got err=%v wantErr=%v", c.name, err, c.wantErr)
		}
	}
}

func TestOperationValidateMissingPayload(t *testing.T) {
	// Операция без данных отклоняется до обращения к банку
	op := Operation{Type: OpDeposit}
	if err := op.Validate(); err != ErrMissingFields {
		t.Errorf("missing payload: got %v want %v", err, ErrMissingFields)
	}
}

func TestOperationValidateUnknownType(t *testing.T) {
	op := Operation{Type: OperationType("fly_to_moon")}

	err := op.Validate()
	if err == nil {
		t.Fatal("unknown operation type must fail validation")
	}
	if Category(err) != CategoryValidation {
		t.Errorf("error category: got %s want %s", Category(err), CategoryValidation)
	}
}
