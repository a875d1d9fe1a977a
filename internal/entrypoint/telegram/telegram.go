// Package telegram is the bot front end. Commands carry the account and
// amount inline, but never the PIN: a command that needs authorization parks
// a pending session and the next plain-text reply is taken as the PIN, with
// the same two-attempt bound the console applies.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"minibank/internal/entity"
	"minibank/internal/usecase"
)

const helpText = `Commands:
/open name;phone;email;pin - create an account
/deposit <account> <amount>
/withdraw <account> <amount>
/transfer <from> <to> <amount>
/balance <account>
/history <account>
/cancel - abandon the pending operation

Withdraw, transfer, balance and history ask for your PIN in a follow-up reply.`

type Bot struct {
	api     *tgbotapi.BotAPI
	adminID int64
	log     *zap.Logger

	idempotence  *usecase.Idempotence
	getSession   *usecase.GetSession
	saveSession  *usecase.SaveSession
	clearSession *usecase.ClearSession

	openAccount *usecase.OpenAccount
	deposit     *usecase.Deposit
	withdraw    *usecase.Withdraw
	transfer    *usecase.Transfer
	authorize   *usecase.Authorize
	getBalance  *usecase.GetBalance
	getHistory  *usecase.GetHistory

	historyLimit int

	commands map[string]func(chatID int64, args string) (*reply, error)
}

func New(
	token string,
	adminID int64,
	log *zap.Logger,
	idempotence *usecase.Idempotence,
	getSession *usecase.GetSession,
	saveSession *usecase.SaveSession,
	clearSession *usecase.ClearSession,
	openAccount *usecase.OpenAccount,
	deposit *usecase.Deposit,
	withdraw *usecase.Withdraw,
	transfer *usecase.Transfer,
	authorize *usecase.Authorize,
	getBalance *usecase.GetBalance,
	getHistory *usecase.GetHistory,
	historyLimit int,
) (*Bot, error) {

	botApi, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	if historyLimit <= 0 {
		historyLimit = usecase.DefaultHistoryLimit
	}

	b := &Bot{
		api:     botApi,
		adminID: adminID,
		log:     log,

		idempotence:  idempotence,
		getSession:   getSession,
		saveSession:  saveSession,
		clearSession: clearSession,

		openAccount: openAccount,
		deposit:     deposit,
		withdraw:    withdraw,
		transfer:    transfer,
		authorize:   authorize,
		getBalance:  getBalance,
		getHistory:  getHistory,

		historyLimit: historyLimit,

		commands: make(map[string]func(chatID int64, args string) (*reply, error)),
	}

	b.Register("start", b.help)
	b.Register("help", b.help)
	b.Register("open", b.open)
	b.Register("deposit", b.depositCommand)
	b.Register("withdraw", b.withdrawCommand)
	b.Register("transfer", b.transferCommand)
	b.Register("balance", b.balanceCommand)
	b.Register("history", b.historyCommand)
	b.Register("cancel", b.cancel)

	return b, nil
}

func (b *Bot) Register(command string, handler func(chatID int64, args string) (*reply, error)) {
	b.commands[command] = handler
}

func (b *Bot) Start(ctx context.Context) {
	config := tgbotapi.NewUpdate(0)
	config.Timeout = 60

	updates := b.api.GetUpdatesChan(config)
	go b.HandleUpdates(ctx, updates)
}

func (b *Bot) HandleUpdates(_ context.Context, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		user := update.SentFrom()
		if user == nil || user.ID != b.adminID {
			continue
		}

		if ok, err := b.checkIfFirstHandle(update); err != nil {
			b.log.Error("idempotence check failed", zap.Error(err))
			continue
		} else if !ok {
			continue
		}

		if update.Message != nil {
			b.handleMessage(update.Message)
		}

		if update.CallbackQuery != nil {
			b.handleCallback(update.CallbackQuery)
		}
	}
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	chatID := message.Chat.ID

	var r *reply
	var err error

	if message.IsCommand() {
		handler, ok := b.commands[message.Command()]
		if !ok {
			return
		}
		r, err = handler(chatID, message.CommandArguments())
	} else {
		r, err = b.handlePINReply(chatID, message)
	}

	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, errText(err)))
		return
	}
	if r == nil {
		return
	}

	out := tgbotapi.NewMessage(chatID, r.text)
	if r.inlineKeyboard != nil {
		out.ReplyMarkup = r.inlineKeyboard
	}
	b.send(out)
}

func (b *Bot) handleCallback(query *tgbotapi.CallbackQuery) {
	parts := strings.SplitN(query.Data, " ", 2)
	if len(parts) != 2 || parts[0] != "more" {
		return
	}

	r, err := b.moreHistory(parts[1])
	if err != nil {
		b.send(tgbotapi.NewMessage(query.Message.Chat.ID, errText(err)))
		return
	}

	out := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, r.text)
	out.ReplyMarkup = r.inlineKeyboard
	b.send(out)
}

func (b *Bot) checkIfFirstHandle(update tgbotapi.Update) (bool, error) {
	id := "telegram"
	if update.Message != nil {
		id += strconv.FormatInt(update.Message.Chat.ID, 10) + strconv.Itoa(update.Message.MessageID)
	} else if update.CallbackQuery != nil {
		id += strconv.FormatInt(update.CallbackQuery.Message.Chat.ID, 10) + update.CallbackQuery.ID
	}
	return b.idempotence.Execute(id)
}

func (b *Bot) help(int64, string) (*reply, error) {
	return &reply{text: helpText}, nil
}

func (b *Bot) cancel(chatID int64, _ string) (*reply, error) {
	if err := b.clearSession.Execute(chatID); err != nil {
		return nil, err
	}
	return &reply{text: "Cancelled."}, nil
}

func (b *Bot) open(_ int64, args string) (*reply, error) {
	request, err := parseOpenArgs(args)
	if err != nil {
		return nil, err
	}

	account, err := b.openAccount.Execute(request.name, request.phone, request.email, request.pin)
	if err != nil {
		return nil, err
	}

	return &reply{text: fmt.Sprintf("Account created. Your account number is %s. Keep it safe.", account.Number)}, nil
}

func (b *Bot) depositCommand(_ int64, args string) (*reply, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return nil, errors.New("expected: /deposit <account> <amount>")
	}

	number, err := parseAccountNumber(fields[0])
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(fields[1])
	if err != nil {
		return nil, err
	}

	newBalance, err := b.deposit.Execute(number, amount)
	if err != nil {
		return nil, err
	}

	return &reply{text: "Deposit successful. New balance: $" + newBalance.StringFixed(2)}, nil
}

func (b *Bot) withdrawCommand(chatID int64, args string) (*reply, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return nil, errors.New("expected: /withdraw <account> <amount>")
	}

	number, err := parseAccountNumber(fields[0])
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(fields[1])
	if err != nil {
		return nil, err
	}
	if err := b.requireAccount(number); err != nil {
		return nil, err
	}

	err = b.saveSession.Execute(chatID, entity.Session{
		ChatID:  chatID,
		Pending: entity.PendingWithdraw,
		Account: number,
		Amount:  amount,
	})
	if err != nil {
		return nil, err
	}

	return &reply{text: "Reply with your 4-digit PIN to confirm the withdrawal."}, nil
}

func (b *Bot) transferCommand(chatID int64, args string) (*reply, error) {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return nil, errors.New("expected: /transfer <from> <to> <amount>")
	}

	from, err := parseAccountNumber(fields[0])
	if err != nil {
		return nil, err
	}
	to, err := parseAccountNumber(fields[1])
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(fields[2])
	if err != nil {
		return nil, err
	}
	if err := b.requireAccount(from); err != nil {
		return nil, err
	}
	if err := b.requireAccount(to); err != nil {
		return nil, err
	}

	err = b.saveSession.Execute(chatID, entity.Session{
		ChatID:       chatID,
		Pending:      entity.PendingTransfer,
		Account:      from,
		Counterparty: to,
		Amount:       amount,
	})
	if err != nil {
		return nil, err
	}

	return &reply{text: "Reply with your 4-digit PIN to confirm the transfer."}, nil
}

func (b *Bot) balanceCommand(chatID int64, args string) (*reply, error) {
	number, err := parseAccountNumber(strings.TrimSpace(args))
	if err != nil {
		return nil, err
	}
	if err := b.requireAccount(number); err != nil {
		return nil, err
	}

	err = b.saveSession.Execute(chatID, entity.Session{
		ChatID:  chatID,
		Pending: entity.PendingBalance,
		Account: number,
	})
	if err != nil {
		return nil, err
	}

	return &reply{text: "Reply with your 4-digit PIN."}, nil
}

func (b *Bot) historyCommand(chatID int64, args string) (*reply, error) {
	number, err := parseAccountNumber(strings.TrimSpace(args))
	if err != nil {
		return nil, err
	}
	if err := b.requireAccount(number); err != nil {
		return nil, err
	}

	err = b.saveSession.Execute(chatID, entity.Session{
		ChatID:  chatID,
		Pending: entity.PendingHistory,
		Account: number,
	})
	if err != nil {
		return nil, err
	}

	return &reply{text: "Reply with your 4-digit PIN."}, nil
}

// handlePINReply resolves a pending session with the PIN the user just sent.
// The PIN message itself is deleted on a best-effort basis.
func (b *Bot) handlePINReply(chatID int64, message *tgbotapi.Message) (*reply, error) {
	session, err := b.getSession.Execute(chatID)
	if err != nil {
		return nil, err
	}
	if session.Pending == "" {
		return &reply{text: helpText}, nil
	}

	code := strings.TrimSpace(message.Text)
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, message.MessageID)); err != nil {
		b.log.Debug("could not delete pin message", zap.Error(err))
	}

	if !pinRe.MatchString(code) {
		return &reply{text: "PIN must be exactly 4 digits. Try again or /cancel."}, nil
	}

	r, err := b.resolvePending(session, code)
	if errors.Is(err, entity.UnauthorizedErr) {
		session.Attempts++
		if session.Attempts >= usecase.MaxPINAttempts {
			if clearErr := b.clearSession.Execute(chatID); clearErr != nil {
				return nil, clearErr
			}
			return &reply{text: "Multiple incorrect PIN attempts. Access denied."}, nil
		}
		if saveErr := b.saveSession.Execute(chatID, session); saveErr != nil {
			return nil, saveErr
		}
		return &reply{text: "Incorrect PIN. Please try again."}, nil
	}

	if clearErr := b.clearSession.Execute(chatID); clearErr != nil {
		b.log.Error("clear session failed", zap.Error(clearErr))
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (b *Bot) resolvePending(session entity.Session, code string) (*reply, error) {
	switch session.Pending {
	case entity.PendingWithdraw:
		newBalance, err := b.withdraw.Execute(session.Account, code, session.Amount)
		if err != nil {
			return nil, err
		}
		return &reply{text: "Withdrawal successful. New balance: $" + newBalance.StringFixed(2)}, nil

	case entity.PendingTransfer:
		newBalance, err := b.transfer.Execute(session.Account, session.Counterparty, code, session.Amount)
		if err != nil {
			return nil, err
		}
		return &reply{text: "Transfer successful. New balance: $" + newBalance.StringFixed(2)}, nil

	case entity.PendingBalance:
		if err := b.requirePIN(session.Account, code); err != nil {
			return nil, err
		}
		account, err := b.getBalance.Execute(session.Account)
		if err != nil {
			return nil, err
		}
		return &reply{text: fmt.Sprintf("Account %s (%s)\nBalance: $%s",
			account.Number, account.Name, account.Balance.StringFixed(2))}, nil

	case entity.PendingHistory:
		if err := b.requirePIN(session.Account, code); err != nil {
			return nil, err
		}
		return b.renderHistory(session.Account, b.historyLimit)

	default:
		return nil, fmt.Errorf("unknown pending operation %q", session.Pending)
	}
}

func (b *Bot) requireAccount(number string) error {
	_, err := b.getBalance.Execute(number)
	return err
}

func (b *Bot) requirePIN(number, code string) error {
	ok, err := b.authorize.Execute(number, code)
	if err != nil {
		return err
	}
	if !ok {
		return entity.UnauthorizedErr
	}
	return nil
}

// moreHistory re-renders an already authorized history view with a larger
// window. Args are "<account> <count>".
func (b *Bot) moreHistory(args string) (*reply, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return nil, errors.New("bad paging request")
	}

	count, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, err
	}

	return b.renderHistory(fields[0], count)
}

func (b *Bot) renderHistory(number string, limit int) (*reply, error) {
	records, err := b.getHistory.Execute(number, limit)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return &reply{text: "No transaction history found for account " + number + "."}, nil
	}

	text := fmt.Sprintf("Last %d transactions for %s:\n\n", len(records), number)
	for _, r := range records {
		line := fmt.Sprintf("#%d %s $%s", r.ID, r.Kind, r.Amount.StringFixed(2))
		if r.Counterparty != "" {
			line += " -> " + r.Counterparty
		}
		line += " (" + r.Timestamp.Format("02.01.2006 15:04") + ")"
		text += line + "\n"
	}

	var markup *tgbotapi.InlineKeyboardMarkup
	if len(records) == limit {
		keyboard := newInlineKeyboard(1)
		keyboard.addButton("Show more", fmt.Sprintf("more %s %d", number, limit+b.historyLimit))
		markup = keyboard.markup()
	}

	return &reply{text: text, inlineKeyboard: markup}, nil
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Error("send failed", zap.Error(err))
	}
}

func errText(err error) string {
	switch {
	case errors.Is(err, entity.AccountNotFoundErr):
		return "Account not found."
	case errors.Is(err, entity.ContactInUseErr):
		return "An account with this phone number or email already exists."
	case errors.Is(err, entity.SelfTransferErr):
		return "Cannot transfer to the same account."
	case errors.Is(err, entity.InvalidAmountErr):
		return "Amount must be greater than zero."
	case errors.Is(err, entity.InsufficientFundsErr):
		detail := strings.TrimPrefix(err.Error(), entity.InsufficientFundsErr.Error()+": ")
		return "Insufficient balance. Your " + detail + "."
	case errors.Is(err, entity.PersistenceErr):
		return "The operation could not be completed. Please try again."
	default:
		return err.Error()
	}
}
