package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"olo_mining/internal/domain"
	"olo_mining/internal/logger"
	"olo_mining/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of tgbotapi.BotAPI the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// AdminBot lets operators review withdrawals from Telegram and pushes new
// requests to their chats. Telegram admin ids stand in for the console PIN.
type AdminBot struct {
	api          *tgbotapi.BotAPI
	out          sender
	adminService *service.AdminService
	adminIDs     []int64
	stopCh       chan struct{}
	wg           sync.WaitGroup
	log          *slog.Logger
}

// NewAdminBot authorizes against the Bot API.
func NewAdminBot(token string, adminService *service.AdminService, adminIDs []int64) (*AdminBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newAdminBot(api, adminService, adminIDs)
	b.api = api
	b.log.Info("admin bot authorized", "username", api.Self.UserName)
	return b, nil
}

func newAdminBot(out sender, adminService *service.AdminService, adminIDs []int64) *AdminBot {
	return &AdminBot{
		out:          out,
		adminService: adminService,
		adminIDs:     adminIDs,
		stopCh:       make(chan struct{}),
		log:          logger.Component("admin_bot"),
	}
}

// Start runs the update loop until Stop.
func (b *AdminBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			if !b.isAdmin(update.Message.From.ID) || !update.Message.IsCommand() {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop ends the update loop and waits for running handlers.
func (b *AdminBot) Stop() {
	b.log.Info("stopping admin bot...")
	close(b.stopCh)
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("admin bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("admin bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *AdminBot) isAdmin(userID int64) bool {
	for _, id := range b.adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *AdminBot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reply := tgbotapi.NewMessage(msg.Chat.ID, b.respond(ctx, msg.Command(), msg.CommandArguments()))
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.out.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

// respond maps one command to its reply text.
func (b *AdminBot) respond(ctx context.Context, command, args string) string {
	parts := strings.Fields(args)

	switch command {
	case "start", "help":
		return helpMessage

	case "stats":
		if len(parts) != 1 {
			return "Usage: /stats &lt;install&gt;"
		}
		return b.handleStats(ctx, parts[0])

	case "withdrawals":
		if len(parts) != 1 {
			return "Usage: /withdrawals &lt;install&gt;"
		}
		return b.handleWithdrawals(ctx, parts[0])

	case "approve", "reject":
		if len(parts) != 2 {
			return fmt.Sprintf("Usage: /%s &lt;install&gt; &lt;withdrawal&gt;", command)
		}
		return b.handleReview(ctx, command, parts[0], parts[1])

	case "ban":
		if len(parts) != 2 {
			return "Usage: /ban &lt;install&gt; &lt;user&gt;"
		}
		return b.handleBan(ctx, parts[0], parts[1])

	default:
		return "Unknown command. Use /help for the list."
	}
}

const helpMessage = `<b>OLO admin commands</b>

/stats &lt;install&gt; - users and pending withdrawals
/withdrawals &lt;install&gt; - pending requests
/approve &lt;install&gt; &lt;withdrawal&gt; - mark completed
/reject &lt;install&gt; &lt;withdrawal&gt; - mark rejected (no refund)
/ban &lt;install&gt; &lt;user&gt; - toggle ban`

func (b *AdminBot) handleStats(ctx context.Context, installID string) string {
	stats, err := b.adminService.Stats(ctx, installID)
	if err != nil {
		return "Error: " + html.EscapeString(err.Error())
	}
	return fmt.Sprintf("<b>Install %s</b>\nUsers: %d\nPending withdrawals: %d",
		html.EscapeString(installID), stats.TotalUsers, stats.PendingWithdrawals)
}

func (b *AdminBot) handleWithdrawals(ctx context.Context, installID string) string {
	list, err := b.adminService.Withdrawals(ctx, installID)
	if err != nil {
		return "Error: " + html.EscapeString(err.Error())
	}

	var sb strings.Builder
	n := 0
	for _, w := range list {
		if w.Status != domain.WithdrawalStatusPending {
			continue
		}
		if n == 0 {
			sb.WriteString("<b>Pending withdrawals</b>\n\n")
		}
		n++
		sb.WriteString(fmt.Sprintf("%s | %s OLO\n<code>%s</code>\n%s\n\n",
			w.ID, w.Amount, w.WalletAddress, w.Created().UTC().Format("02.01.2006 15:04")))
	}
	if n == 0 {
		return "No pending withdrawals"
	}
	return sb.String()
}

func (b *AdminBot) handleReview(ctx context.Context, command, installID, withdrawalID string) string {
	var err error
	if command == "approve" {
		_, err = b.adminService.Approve(ctx, installID, withdrawalID)
	} else {
		_, err = b.adminService.Reject(ctx, installID, withdrawalID)
	}
	if err != nil {
		return "Error: " + html.EscapeString(err.Error())
	}
	if command == "approve" {
		return fmt.Sprintf("Withdrawal %s approved", html.EscapeString(withdrawalID))
	}
	return fmt.Sprintf("Withdrawal %s rejected", html.EscapeString(withdrawalID))
}

func (b *AdminBot) handleBan(ctx context.Context, installID, userID string) string {
	u, err := b.adminService.ToggleBan(ctx, installID, userID)
	if err != nil {
		return "Error: " + html.EscapeString(err.Error())
	}
	if u.IsBanned {
		return fmt.Sprintf("User %s banned", html.EscapeString(u.ID))
	}
	return fmt.Sprintf("User %s unbanned", html.EscapeString(u.ID))
}

// NotifyWithdrawal sends a new request to every admin chat.
func (b *AdminBot) NotifyWithdrawal(_ context.Context, installID string, u *domain.User, w domain.Withdrawal) {
	message := fmt.Sprintf(`<b>New withdrawal request</b>

User: %s (TG: %s)
Amount: %s OLO
Wallet: <code>%s</code>

/approve %s %s
/reject %s %s`,
		html.EscapeString(u.Username), html.EscapeString(u.TelegramID), w.Amount, w.WalletAddress,
		installID, w.ID, installID, w.ID)

	for _, adminID := range b.adminIDs {
		msg := tgbotapi.NewMessage(adminID, message)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := b.out.Send(msg); err != nil {
			b.log.Error("failed to notify admin", "admin_id", adminID, "error", err)
		}
	}
}
