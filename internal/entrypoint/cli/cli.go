// Package cli is the interactive console front end: a menu loop over the
// account and money-movement operations, with per-field input validation and
// up to two PIN prompts before a guarded action is abandoned.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"minibank/internal/entity"
	"minibank/internal/usecase"
)

const (
	ansiReset = "\u001b[0m"
	ansiGreen = "\u001b[32m"
	ansiRed   = "\u001b[31m"
	ansiCyan  = "\u001b[36m"
)

type Menu struct {
	in  *bufio.Scanner
	out io.Writer
	log *zap.Logger

	openAccount *usecase.OpenAccount
	deposit     *usecase.Deposit
	withdraw    *usecase.Withdraw
	transfer    *usecase.Transfer
	authorize   *usecase.Authorize
	getBalance  *usecase.GetBalance
	getHistory  *usecase.GetHistory

	historyLimit int
}

func New(
	in io.Reader,
	out io.Writer,
	log *zap.Logger,
	openAccount *usecase.OpenAccount,
	deposit *usecase.Deposit,
	withdraw *usecase.Withdraw,
	transfer *usecase.Transfer,
	authorize *usecase.Authorize,
	getBalance *usecase.GetBalance,
	getHistory *usecase.GetHistory,
	historyLimit int,
) *Menu {
	if historyLimit <= 0 {
		historyLimit = usecase.DefaultHistoryLimit
	}

	return &Menu{
		in:  bufio.NewScanner(in),
		out: out,
		log: log,

		openAccount: openAccount,
		deposit:     deposit,
		withdraw:    withdraw,
		transfer:    transfer,
		authorize:   authorize,
		getBalance:  getBalance,
		getHistory:  getHistory,

		historyLimit: historyLimit,
	}
}

// Run drives the menu until the user exits or input ends.
func (m *Menu) Run() error {
	m.banner("BANK MANAGEMENT SYSTEM")
	fmt.Fprintln(m.out, "            Welcome to Our Banking Services")

	for {
		fmt.Fprintln(m.out)
		m.banner("MAIN MENU")
		fmt.Fprintln(m.out, "1. Create New Account")
		fmt.Fprintln(m.out, "2. Deposit")
		fmt.Fprintln(m.out, "3. Withdraw")
		fmt.Fprintln(m.out, "4. Transfer")
		fmt.Fprintln(m.out, "5. Check Balance")
		fmt.Fprintln(m.out, "6. View Transaction History")
		fmt.Fprintln(m.out, "0. Exit")

		choice, err := m.readChoice("Enter your choice (0-6): ", 0, 6)
		if err != nil {
			return err
		}

		switch choice {
		case 0:
			fmt.Fprintln(m.out, ansiGreen+"Thank you for using our Bank Management System. Goodbye!"+ansiReset)
			return nil
		case 1:
			err = m.createAccount()
		case 2:
			err = m.depositFlow()
		case 3:
			err = m.withdrawFlow()
		case 4:
			err = m.transferFlow()
		case 5:
			err = m.balanceFlow()
		case 6:
			err = m.historyFlow()
		}
		if err != nil {
			return err
		}

		stay, err := m.confirmReturn()
		if err != nil {
			return err
		}
		if !stay {
			fmt.Fprintln(m.out, ansiGreen+"Thank you for using our Bank Management System. Goodbye!"+ansiReset)
			return nil
		}
	}
}

// confirmReturn asks whether to go back to the main menu. Input ending here is
// treated as a normal exit.
func (m *Menu) confirmReturn() (bool, error) {
	for {
		s, err := m.readLine("\nReturn to main menu? (y/n): ")
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		switch strings.ToLower(s) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		m.printErrorText("Please enter 'y' or 'n'.")
	}
}

func (m *Menu) createAccount() error {
	m.banner("CREATE NEW ACCOUNT")

	name, err := m.readLine("Enter name: ")
	if err != nil {
		return err
	}
	phone, err := m.readValidated("Enter phone number (9-10 digits): ", validPhone,
		"Invalid phone number. Please enter 9-10 digits only.")
	if err != nil {
		return err
	}
	email, err := m.readValidated("Enter email address: ", validEmail,
		"Invalid email format. Email must contain '@' and a domain (e.g., example@domain.com)")
	if err != nil {
		return err
	}
	code, err := m.readValidated("Create 4-digit PIN: ", validPIN, "PIN must be exactly 4 digits.")
	if err != nil {
		return err
	}

	account, err := m.openAccount.Execute(name, phone, email, code)
	if err != nil {
		m.printError(err)
		return nil
	}

	m.printOK("Account created successfully!")
	m.printOK("Your account number is: " + account.Number)
	fmt.Fprintln(m.out, "Please keep your account number safe - you'll need it for all transactions.")
	return nil
}

func (m *Menu) depositFlow() error {
	m.banner("DEPOSIT")

	number, err := m.readAccountNumber("Enter account number: ")
	if err != nil {
		return err
	}
	amount, err := m.readAmount("Enter amount to deposit: ")
	if err != nil {
		return err
	}

	newBalance, err := m.deposit.Execute(number, amount)
	if err != nil {
		m.printError(err)
		return nil
	}

	m.printOK("Deposit successful!")
	m.printOK("New balance: $" + newBalance.StringFixed(2))
	return nil
}

func (m *Menu) withdrawFlow() error {
	m.banner("WITHDRAW")

	number, err := m.readAccountNumber("Enter account number: ")
	if err != nil {
		return err
	}
	amount, err := m.readAmount("Enter amount to withdraw: ")
	if err != nil {
		return err
	}

	newBalance, err := m.withPINAttempts(func(code string) (decimal.Decimal, error) {
		return m.withdraw.Execute(number, code, amount)
	})
	if err != nil {
		m.printError(err)
		return nil
	}

	m.printOK("Withdrawal successful!")
	m.printOK("New balance: $" + newBalance.StringFixed(2))
	return nil
}

func (m *Menu) transferFlow() error {
	m.banner("TRANSFER")

	from, err := m.readAccountNumber("Enter your account number: ")
	if err != nil {
		return err
	}
	to, err := m.readAccountNumber("Enter recipient account number: ")
	if err != nil {
		return err
	}
	amount, err := m.readAmount("Enter amount to transfer: ")
	if err != nil {
		return err
	}

	newBalance, err := m.withPINAttempts(func(code string) (decimal.Decimal, error) {
		return m.transfer.Execute(from, to, code, amount)
	})
	if err != nil {
		m.printError(err)
		return nil
	}

	m.printOK("Transfer successful!")
	m.printOK("New balance: $" + newBalance.StringFixed(2))
	return nil
}

func (m *Menu) balanceFlow() error {
	m.banner("CHECK BALANCE")

	number, err := m.readAccountNumber("Enter account number: ")
	if err != nil {
		return err
	}

	account, err := m.getBalance.Execute(number)
	if err != nil {
		m.printError(err)
		return nil
	}

	ok, err := m.promptAuthorized(number)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	m.banner("ACCOUNT DETAILS")
	fmt.Fprintln(m.out, "Account Holder: "+account.Name)
	fmt.Fprintln(m.out, "Account Number: "+account.Number)
	m.printOK("Current Balance: $" + account.Balance.StringFixed(2))
	return nil
}

func (m *Menu) historyFlow() error {
	m.banner("TRANSACTION HISTORY")

	number, err := m.readAccountNumber("Enter account number: ")
	if err != nil {
		return err
	}

	if _, err := m.getBalance.Execute(number); err != nil {
		m.printError(err)
		return nil
	}

	ok, err := m.promptAuthorized(number)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	records, err := m.getHistory.Execute(number, m.historyLimit)
	if err != nil {
		m.printError(err)
		return nil
	}

	if len(records) == 0 {
		fmt.Fprintln(m.out, "No transaction history found for this account.")
		return nil
	}

	fmt.Fprintln(m.out, "\nRecent Transactions:")
	fmt.Fprintln(m.out, strings.Repeat("-", 64))
	fmt.Fprintf(m.out, "%-10s %-12s %-15s %-20s\n", "Type", "Amount", "Counterparty", "Date/Time")
	fmt.Fprintln(m.out, strings.Repeat("-", 64))
	for _, r := range records {
		counterparty := r.Counterparty
		if counterparty == "" {
			counterparty = "N/A"
		}
		fmt.Fprintf(m.out, "%-10s $%-11s %-15s %-20s\n",
			r.Kind, r.Amount.StringFixed(2), counterparty, r.Timestamp.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(m.out, strings.Repeat("-", 64))
	return nil
}

// withPINAttempts prompts for a PIN and runs op, re-prompting once when the
// PIN is rejected.
func (m *Menu) withPINAttempts(op func(code string) (decimal.Decimal, error)) (decimal.Decimal, error) {
	var result decimal.Decimal
	var opErr error

	for attempt := 1; attempt <= usecase.MaxPINAttempts; attempt++ {
		code, err := m.readValidated("Enter your 4-digit PIN: ", validPIN, "PIN must be exactly 4 digits.")
		if err != nil {
			return decimal.Zero, err
		}

		result, opErr = op(code)
		if !errors.Is(opErr, entity.UnauthorizedErr) {
			return result, opErr
		}
		if attempt < usecase.MaxPINAttempts {
			m.printErrorText("Incorrect PIN. Please try again.")
		}
	}

	return decimal.Zero, fmt.Errorf("%w: multiple incorrect PIN attempts", entity.UnauthorizedErr)
}

// promptAuthorized gates the read-only queries behind the same two-attempt
// PIN policy.
func (m *Menu) promptAuthorized(number string) (bool, error) {
	var readErr error
	ok, err := m.authorize.ExecuteWithPrompt(number, func(attempt int) (string, error) {
		if attempt > 1 {
			m.printErrorText("Incorrect PIN. Please try again.")
		}
		code, err := m.readValidated("Enter your 4-digit PIN: ", validPIN, "PIN must be exactly 4 digits.")
		if err != nil {
			readErr = err
			return "", err
		}
		return code, nil
	})
	if readErr != nil {
		return false, readErr
	}
	if err != nil {
		m.printError(err)
		return false, nil
	}
	if !ok {
		m.printErrorText("Multiple incorrect PIN attempts. Access denied.")
	}
	return ok, nil
}

func (m *Menu) readLine(prompt string) (string, error) {
	fmt.Fprint(m.out, prompt)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) readValidated(prompt string, valid func(string) bool, message string) (string, error) {
	for {
		s, err := m.readLine(prompt)
		if err != nil {
			return "", err
		}
		if valid(s) {
			return s, nil
		}
		m.printErrorText(message)
	}
}

func (m *Menu) readAccountNumber(prompt string) (string, error) {
	return m.readValidated(prompt, validAccountNumber, "Account number must be exactly 5 digits.")
}

func (m *Menu) readAmount(prompt string) (decimal.Decimal, error) {
	for {
		s, err := m.readLine(prompt)
		if err != nil {
			return decimal.Zero, err
		}
		if amount, ok := parseAmount(s); ok {
			return amount, nil
		}
		m.printErrorText("Invalid amount. Please enter a positive number with at most two decimals.")
	}
}

func (m *Menu) readChoice(prompt string, min, max int) (int, error) {
	for {
		s, err := m.readLine(prompt)
		if err != nil {
			return 0, err
		}
		choice, convErr := strconv.Atoi(s)
		if convErr != nil || choice < min || choice > max {
			m.printErrorText(fmt.Sprintf("Invalid option. Please enter a number between %d and %d.", min, max))
			continue
		}
		return choice, nil
	}
}

func (m *Menu) banner(title string) {
	fmt.Fprintln(m.out, ansiCyan+"\n==================================================")
	fmt.Fprintf(m.out, "%s%s\n", strings.Repeat(" ", (50-len(title))/2), title)
	fmt.Fprintln(m.out, "=================================================="+ansiReset)
}

func (m *Menu) printOK(message string) {
	fmt.Fprintln(m.out, ansiGreen+message+ansiReset)
}

func (m *Menu) printErrorText(message string) {
	fmt.Fprintln(m.out, ansiRed+"ERROR: "+message+ansiReset)
}

func (m *Menu) printError(err error) {
	m.log.Debug("operation failed", zap.Error(err))
	m.printErrorText(userMessage(err))
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, entity.AccountNotFoundErr):
		return "Account not found."
	case errors.Is(err, entity.ContactInUseErr):
		return "An account with this phone number or email already exists."
	case errors.Is(err, entity.SelfTransferErr):
		return "Cannot transfer to your own account."
	case errors.Is(err, entity.InvalidAmountErr):
		return "Amount must be greater than zero."
	case errors.Is(err, entity.InsufficientFundsErr):
		return "Insufficient balance." + trailingDetail(err, entity.InsufficientFundsErr)
	case errors.Is(err, entity.UnauthorizedErr):
		return "Multiple incorrect PIN attempts. Access denied."
	case errors.Is(err, entity.PersistenceErr):
		return "The operation could not be completed. Please try again."
	default:
		return err.Error()
	}
}

// trailingDetail extracts the text a wrapped domain error carries beyond the
// sentinel, e.g. the current balance of a failed withdrawal.
func trailingDetail(err error, sentinel error) string {
	detail := strings.TrimPrefix(err.Error(), sentinel.Error())
	if detail == "" {
		return ""
	}
	return strings.Replace(detail, ":", " Your", 1) + "."
}
