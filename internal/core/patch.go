package core

// Patch types carry partial updates. A nil field is "leave unchanged"; a
// non-nil field is "set to this value", so setting a description to the
// empty string is distinguishable from not touching it.

// LedgerPatch is a partial update to a ledger entry.
type LedgerPatch struct {
	AccountID   *int64
	CategoryID  *int64
	Amount      *Money
	Type        *EntryType
	Date        *Date
	Description *string
}

func (p LedgerPatch) IsEmpty() bool {
	return p.AccountID == nil && p.CategoryID == nil && p.Amount == nil &&
		p.Type == nil && p.Date == nil && p.Description == nil
}

// Validate checks only the fields the patch actually sets.
func (p LedgerPatch) Validate() error {
	if p.Type != nil {
		switch *p.Type {
		case Income, Expense:
		default:
			return ErrInvalidType
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SchedulePatch is a partial update to a recurring schedule.
type SchedulePatch struct {
	AccountID   *int64
	CategoryID  *int64
	Amount      *Money
	Frequency   *Frequency
	NextDue     *Date
	Description *string
}

func (p SchedulePatch) IsEmpty() bool {
	return p.AccountID == nil && p.CategoryID == nil && p.Amount == nil &&
		p.Frequency == nil && p.NextDue == nil && p.Description == nil
}

func (p SchedulePatch) Validate() error {
	if p.Frequency != nil {
		switch *p.Frequency {
		case Daily, Weekly, Monthly, Yearly:
		default:
			return ErrInvalidFrequency
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.NextDue != nil {
		if err := p.NextDue.Validate(); err != nil {
			return err
		}
	}
	return nil
}
