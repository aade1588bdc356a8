package cgd

type amountMode int

const (
	// One signed column, e.g. "Montante" holding "-10,00".
	amountSingle amountMode = iota
	// Separate "Débito"/"Crédito" columns.
	amountSplit
)

// Profile is the column layout of one CGD export flavour.
type Profile struct {
	Name       string
	DateCol    string
	AmountMode amountMode
	AmountCol  string
	DebitCol   string
	CreditCol  string
}

func (p Profile) requiredCols() []string {
	if p.AmountMode == amountSplit {
		return []string{p.DateCol, p.DebitCol, p.CreditCol}
	}

	return []string{p.DateCol, p.AmountCol}
}

// Tried in order; the split layout goes first because its date column is the
// most generic name.
var profiles = []Profile{
	{Name: "cartão", DateCol: "Data", AmountMode: amountSplit, DebitCol: "Débito", CreditCol: "Crédito"},
	{Name: "extrato", DateCol: "Data mov.", AmountMode: amountSingle, AmountCol: "Movimento"},
	{Name: "conta", DateCol: "Data mov.", AmountMode: amountSingle, AmountCol: "Montante"},
}
