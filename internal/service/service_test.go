package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"olo_mining/internal/domain"
	"olo_mining/internal/kv"
	"olo_mining/internal/repository"

	"github.com/shopspring/decimal"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newInstalls() *repository.Installs {
	return repository.NewInstalls(kv.NewMemory(), nil)
}

func setBalance(t *testing.T, installs *repository.Installs, installID string, balance int64) *domain.User {
	t.Helper()
	ctx := context.Background()
	r := installs.Open(installID)
	u, err := r.GetUser(ctx)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	u.Balance = decimal.NewFromInt(balance)
	if err := r.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	return u
}

func balanceOf(t *testing.T, installs *repository.Installs, installID string) decimal.Decimal {
	t.Helper()
	u, err := installs.Open(installID).GetUser(context.Background())
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	return u.Balance
}

func TestMiningCycle(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	clk := newClock()
	svc := NewMiningService(installs, NewAuditService())
	svc.SetClock(clk.Now)

	v, err := svc.Status(ctx, "a")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if v.Status != "idle" {
		t.Fatalf("new user should be idle, got %s", v.Status)
	}

	if _, err := svc.Claim(ctx, "a"); !errors.Is(err, ErrNotClaimable) {
		t.Fatalf("claim while idle: %v", err)
	}

	if _, err := svc.Start(ctx, "a"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Start(ctx, "a"); !errors.Is(err, ErrAlreadyMining) {
		t.Fatalf("second start: %v", err)
	}

	clk.Advance(30 * time.Minute)
	v, _ = svc.Status(ctx, "a")
	if v.Status != "running" || !v.Earnings.Equal(decimal.NewFromInt(5)) || v.Countdown != "30:00" {
		t.Fatalf("half way: %+v", v)
	}
	if _, err := svc.Claim(ctx, "a"); !errors.Is(err, ErrNotClaimable) {
		t.Fatalf("early claim: %v", err)
	}

	clk.Advance(31 * time.Minute)
	before := balanceOf(t, installs, "a")
	v, err = svc.Claim(ctx, "a")
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if v.Status != "idle" || v.StartedAt != nil {
		t.Fatalf("after claim: %+v", v)
	}
	if got := balanceOf(t, installs, "a"); !got.Equal(before.Add(decimal.NewFromInt(10))) {
		t.Fatalf("balance %s, want %s + 10", got, before)
	}

	if _, err := svc.Claim(ctx, "a"); !errors.Is(err, ErrNotClaimable) {
		t.Fatalf("double claim: %v", err)
	}
}

func TestMiningStatusIsStableAcrossReads(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	clk := newClock()
	svc := NewMiningService(installs, nil)
	svc.SetClock(clk.Now)

	_, _ = svc.Start(ctx, "a")
	clk.Advance(10 * time.Minute)

	a, _ := svc.Status(ctx, "a")
	b, _ := svc.Status(ctx, "a")
	if a.Status != b.Status || a.Remaining != b.Remaining || !a.Earnings.Equal(b.Earnings) {
		t.Fatalf("reads differ: %+v vs %+v", a, b)
	}
}

func TestBannedUserCannotMine(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	u, _ := installs.Open("a").GetUser(ctx)
	u.IsBanned = true
	_ = installs.Open("a").SaveUser(ctx, u)

	svc := NewMiningService(installs, nil)
	if _, err := svc.Start(ctx, "a"); !errors.Is(err, ErrUserBanned) {
		t.Fatalf("expected ErrUserBanned, got %v", err)
	}
}

func TestTaskCountdown(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	svc := NewTaskService(installs, nil, 10)

	var completions []TaskCompletion
	svc.OnComplete(func(c TaskCompletion) { completions = append(completions, c) })

	before := balanceOf(t, installs, "a")

	res, err := svc.Verify(ctx, "a", "1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Link == nil || *res.Link != "https://t.me/olo_official" || res.Remaining != 10 {
		t.Fatalf("unexpected verify result: %+v", res)
	}

	if _, err := svc.Verify(ctx, "a", "2"); !errors.Is(err, ErrVerificationInFlight) {
		t.Fatalf("second verify: %v", err)
	}
	if cur := svc.Current("a"); cur == nil || cur.TaskID != "1" {
		t.Fatalf("in-flight task changed: %+v", cur)
	}

	for i := 0; i < 9; i++ {
		svc.Tick(ctx)
	}
	if cur := svc.Current("a"); cur == nil || cur.Remaining != 1 {
		t.Fatalf("after 9 ticks: %+v", cur)
	}
	if len(completions) != 0 {
		t.Fatal("completed too early")
	}

	svc.Tick(ctx)
	if svc.Current("a") != nil {
		t.Fatal("countdown should be cleared")
	}
	if len(completions) != 1 || completions[0].Task.ID != "1" {
		t.Fatalf("completions: %+v", completions)
	}

	tasks, cur, _ := svc.List(ctx, "a")
	if cur != nil {
		t.Fatal("no countdown expected")
	}
	for _, task := range tasks {
		if task.IsCompleted != (task.ID == "1") {
			t.Fatalf("task %s completed=%v", task.ID, task.IsCompleted)
		}
	}
	if got := balanceOf(t, installs, "a"); !got.Equal(before.Add(decimal.NewFromInt(1))) {
		t.Fatalf("balance %s, want %s + 1", got, before)
	}

	svc.Tick(ctx)
	if got := balanceOf(t, installs, "a"); !got.Equal(before.Add(decimal.NewFromInt(1))) {
		t.Fatalf("reward paid twice: %s", got)
	}

	if _, err := svc.Verify(ctx, "a", "1"); !errors.Is(err, ErrTaskCompleted) {
		t.Fatalf("verify completed task: %v", err)
	}
}

func TestTaskCountdownsArePerInstall(t *testing.T) {
	ctx := context.Background()
	svc := NewTaskService(newInstalls(), nil, 3)

	if _, err := svc.Verify(ctx, "a", "1"); err != nil {
		t.Fatalf("verify a: %v", err)
	}
	if _, err := svc.Verify(ctx, "b", "2"); err != nil {
		t.Fatalf("verify b should not be blocked: %v", err)
	}
}

func TestTaskVerifyPlaceholderLinkAndUnknown(t *testing.T) {
	ctx := context.Background()
	svc := NewTaskService(newInstalls(), nil, 10)

	res, err := svc.Verify(ctx, "a", "4")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Link != nil {
		t.Fatalf("placeholder link should not be opened: %v", *res.Link)
	}

	if _, err := svc.Verify(ctx, "b", "nope"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskDeletedDuringCountdownPaysNothing(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	svc := NewTaskService(installs, nil, 2)
	admin := NewAdminService(installs, nil, "8822")

	before := balanceOf(t, installs, "a")
	_, _ = svc.Verify(ctx, "a", "5")
	if err := admin.DeleteTask(ctx, "a", "5"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	svc.Tick(ctx)
	svc.Tick(ctx)

	if got := balanceOf(t, installs, "a"); !got.Equal(before) {
		t.Fatalf("balance changed to %s", got)
	}
}

func TestWithdrawValidationOrder(t *testing.T) {
	cfg := domain.DefaultConfig()
	good := "0x" + "aB34567890123456789012345678901234567890"

	cases := []struct {
		address, amount string
		balance         int64
		want            error
		msg             string
	}{
		{"0xBAD", "5", 50, ErrInvalidAddress, "Invalid BEP20 Wallet Address"},
		{"0xBAD", "500", 50, ErrInvalidAddress, "Invalid BEP20 Wallet Address"},
		{" " + good, "20", 50, ErrInvalidAddress, "Invalid BEP20 Wallet Address"},
		{good + " ", "20", 50, ErrInvalidAddress, "Invalid BEP20 Wallet Address"},
		{good, "5", 50, ErrBelowMinimum, "Minimum withdrawal is 10 OLO"},
		{good, "", 50, ErrBelowMinimum, "Minimum withdrawal is 10 OLO"},
		{good, "abc", 50, ErrBelowMinimum, "Minimum withdrawal is 10 OLO"},
		{good, "-20", 50, ErrBelowMinimum, "Minimum withdrawal is 10 OLO"},
		{good, "60", 50, ErrInsufficientBalance, "Insufficient OLO balance"},
	}
	for _, c := range cases {
		_, err := Validate(c.address, c.amount, decimal.NewFromInt(c.balance), cfg)
		if !errors.Is(err, c.want) {
			t.Fatalf("%q/%q: got %v, want %v", c.address, c.amount, err, c.want)
		}
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Message != c.msg {
			t.Fatalf("%q/%q: message %v", c.address, c.amount, err)
		}
	}

	amt, err := Validate(good, "10", decimal.NewFromInt(10), cfg)
	if err != nil || !amt.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("exact balance should pass: %s, %v", amt, err)
	}
}

type recordingNotifier struct {
	got []domain.Withdrawal
}

func (n *recordingNotifier) NotifyWithdrawal(_ context.Context, _ string, _ *domain.User, w domain.Withdrawal) {
	n.got = append(n.got, w)
}

func TestWithdrawSuccess(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	svc := NewWithdrawalService(installs, nil, 0)
	n := &recordingNotifier{}
	svc.AddNotifier(n)

	setBalance(t, installs, "a", 50)
	addr := "0x1234567890abcdef1234567890ABCDEF12345678"

	w, err := svc.Withdraw(ctx, "a", addr, "10")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if w.Status != domain.WithdrawalStatusPending || !w.Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected record: %+v", w)
	}

	view, err := svc.Wallet(ctx, "a")
	if err != nil {
		t.Fatalf("Wallet: %v", err)
	}
	if !view.Balance.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("balance %s, want 40", view.Balance)
	}
	if view.WalletAddress != addr {
		t.Fatalf("address not remembered: %q", view.WalletAddress)
	}
	if len(view.History) != 1 || view.History[0].ID != w.ID {
		t.Fatalf("history: %+v", view.History)
	}
	if len(n.got) != 1 {
		t.Fatalf("notifier calls: %d", len(n.got))
	}

	second, err := svc.Withdraw(ctx, "a", addr, "15")
	if err != nil {
		t.Fatalf("second Withdraw: %v", err)
	}
	view, _ = svc.Wallet(ctx, "a")
	if view.History[0].ID != second.ID {
		t.Fatal("newest request should come first")
	}
}

func TestWithdrawFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	svc := NewWithdrawalService(installs, nil, 0)
	setBalance(t, installs, "a", 50)

	_, err := svc.Withdraw(ctx, "a", "0xBAD", "5")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected address error, got %v", err)
	}
	view, _ := svc.Wallet(ctx, "a")
	if !view.Balance.Equal(decimal.NewFromInt(50)) || len(view.History) != 0 || view.WalletAddress != "" {
		t.Fatalf("state changed: %+v", view)
	}
}

func TestWithdrawWaitsOutDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	installs := newInstalls()
	svc := NewWithdrawalService(installs, nil, 50*time.Millisecond)
	setBalance(t, installs, "a", 50)

	start := time.Now()
	cancel()
	_, err := svc.Withdraw(ctx, "a", "0x1234567890abcdef1234567890abcdef12345678", "20")
	if err != nil {
		t.Fatalf("cancelled context should not abort the request: %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Fatal("delay was skipped")
	}
	if got := balanceOf(t, installs, "a"); !got.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("balance %s, want 30", got)
	}
}

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewAdminService(newInstalls(), nil, "8822")

	if err := svc.RequireAdmin(ctx, "a"); !errors.Is(err, ErrAdminRequired) {
		t.Fatalf("expected ErrAdminRequired, got %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := svc.Login(ctx, "a", "0000"); !errors.Is(err, ErrInvalidPIN) {
			t.Fatalf("wrong pin: %v", err)
		}
	}
	if err := svc.Login(ctx, "a", "8822"); err != nil {
		t.Fatalf("no lockout expected: %v", err)
	}
	if err := svc.RequireAdmin(ctx, "a"); err != nil {
		t.Fatalf("RequireAdmin: %v", err)
	}
	if err := svc.RequireAdmin(ctx, "b"); err == nil {
		t.Fatal("flag leaked into another install")
	}
	if err := svc.Logout(ctx, "a"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if ok, _ := svc.LoggedIn(ctx, "a"); ok {
		t.Fatal("still logged in")
	}
}

func TestAdminAdjustBalanceClampsAtZero(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	svc := NewAdminService(installs, nil, "8822")
	u := setBalance(t, installs, "a", 5)

	got, err := svc.AdjustBalance(ctx, "a", u.ID, decimal.NewFromInt(-10))
	if err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}
	if !got.Balance.IsZero() {
		t.Fatalf("balance %s, want 0", got.Balance)
	}
	if b := balanceOf(t, installs, "a"); !b.IsZero() {
		t.Fatalf("active user balance %s, want 0", b)
	}

	got, _ = svc.AdjustBalance(ctx, "a", u.ID, decimal.NewFromInt(10))
	if !got.Balance.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("balance %s, want 10", got.Balance)
	}

	if _, err := svc.AdjustBalance(ctx, "a", "usr_missing", decimal.NewFromInt(1)); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAdminToggleBanBlocksFlows(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	admin := NewAdminService(installs, nil, "8822")
	u, _ := installs.Open("a").GetUser(ctx)

	got, err := admin.ToggleBan(ctx, "a", u.ID)
	if err != nil || !got.IsBanned {
		t.Fatalf("ToggleBan: %+v, %v", got, err)
	}

	tasks := NewTaskService(installs, nil, 10)
	if _, err := tasks.Verify(ctx, "a", "1"); !errors.Is(err, ErrUserBanned) {
		t.Fatalf("banned verify: %v", err)
	}
	wd := NewWithdrawalService(installs, nil, 0)
	if _, err := wd.Withdraw(ctx, "a", "0x1234567890abcdef1234567890abcdef12345678", "10"); !errors.Is(err, ErrUserBanned) {
		t.Fatalf("banned withdraw: %v", err)
	}

	got, _ = admin.ToggleBan(ctx, "a", u.ID)
	if got.IsBanned {
		t.Fatal("second toggle should unban")
	}
}

func TestAdminReviewIsTerminal(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	admin := NewAdminService(installs, nil, "8822")
	wd := NewWithdrawalService(installs, nil, 0)
	setBalance(t, installs, "a", 100)

	addr := "0x1234567890abcdef1234567890abcdef12345678"
	w1, _ := wd.Withdraw(ctx, "a", addr, "10")
	w2, _ := wd.Withdraw(ctx, "a", addr, "20")

	stats, _ := admin.Stats(ctx, "a")
	if stats.TotalUsers != 1 || stats.PendingWithdrawals != 2 {
		t.Fatalf("stats: %+v", stats)
	}

	if got, err := admin.Approve(ctx, "a", w1.ID); err != nil || got.Status != domain.WithdrawalStatusCompleted {
		t.Fatalf("Approve: %+v, %v", got, err)
	}
	if _, err := admin.Reject(ctx, "a", w1.ID); !errors.Is(err, ErrWithdrawalFinal) {
		t.Fatalf("reject after approve: %v", err)
	}
	if got, err := admin.Reject(ctx, "a", w2.ID); err != nil || got.Status != domain.WithdrawalStatusRejected {
		t.Fatalf("Reject: %+v, %v", got, err)
	}
	if _, err := admin.Approve(ctx, "a", w2.ID); !errors.Is(err, ErrWithdrawalFinal) {
		t.Fatalf("approve after reject: %v", err)
	}
	if _, err := admin.Approve(ctx, "a", "wdr_missing"); !errors.Is(err, ErrWithdrawalNotFound) {
		t.Fatalf("expected ErrWithdrawalNotFound, got %v", err)
	}

	// rejection does not refund
	if got := balanceOf(t, installs, "a"); !got.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("balance %s, want 70", got)
	}
	stats, _ = admin.Stats(ctx, "a")
	if stats.PendingWithdrawals != 0 {
		t.Fatalf("pending: %d", stats.PendingWithdrawals)
	}
}

func TestAdminTasksAndConfig(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	admin := NewAdminService(installs, nil, "8822")

	reward := decimal.NewFromInt(3)
	if _, err := admin.UpdateConfig(ctx, "a", ConfigPatch{TaskReward: &reward}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}

	task, err := admin.CreateTask(ctx, "a", TaskInput{Title: "Visit site"})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if !task.Reward.Equal(reward) || task.Link != domain.PlaceholderLink {
		t.Fatalf("defaults not applied: %+v", task)
	}
	if _, err := admin.CreateTask(ctx, "a", TaskInput{Title: "  "}); !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("empty title: %v", err)
	}

	tasks, _ := admin.Tasks(ctx, "a")
	if len(tasks) != 6 || tasks[5].ID != task.ID {
		t.Fatalf("task not appended: %d", len(tasks))
	}

	if err := admin.DeleteTask(ctx, "a", "1"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := admin.DeleteTask(ctx, "a", "1"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("second delete: %v", err)
	}

	duration := int64(60)
	cfg, _ := admin.UpdateConfig(ctx, "a", ConfigPatch{MiningDuration: &duration})
	if cfg.MiningDuration != 60 || !cfg.TaskReward.Equal(reward) {
		t.Fatalf("patch lost fields: %+v", cfg)
	}
}

func TestCreditReferral(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	admin := NewAdminService(installs, nil, "8822")
	refs := NewReferralService(installs, "olo_bot")
	u := setBalance(t, installs, "a", 0)

	two := decimal.NewFromInt(2)
	if _, err := admin.UpdateConfig(ctx, "a", ConfigPatch{ReferralReward: &two}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := admin.CreditReferral(ctx, "a", u.ID); err != nil {
			t.Fatalf("CreditReferral: %v", err)
		}
	}

	v, err := refs.View(ctx, "a")
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Count != 3 || !v.TotalEarned.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("view: %+v", v)
	}
	if v.Link != "https://t.me/olo_bot?start="+u.ReferralCode {
		t.Fatalf("link: %s", v.Link)
	}
	if got := balanceOf(t, installs, "a"); !got.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("balance %s, want 6", got)
	}
}

func TestPayoutsNeverGoNegative(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	clk := newClock()
	r := installs.Open("a")

	// a config written before amounts were checked
	cfg := domain.DefaultConfig()
	cfg.MiningRate = decimal.NewFromInt(-100)
	cfg.MiningDuration = 1
	cfg.ReferralReward = decimal.NewFromInt(-3)
	if err := r.SaveConfig(ctx, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	tasks := domain.SeedTasks()
	tasks[0].Reward = decimal.NewFromInt(-4)
	if err := r.SaveTasks(ctx, tasks); err != nil {
		t.Fatalf("SaveTasks: %v", err)
	}
	u := setBalance(t, installs, "a", 5)
	five := decimal.NewFromInt(5)

	mining := NewMiningService(installs, nil)
	mining.SetClock(clk.Now)
	if _, err := mining.Start(ctx, "a"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clk.Advance(2 * time.Second)
	if _, err := mining.Claim(ctx, "a"); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if got := balanceOf(t, installs, "a"); !got.Equal(five) {
		t.Fatalf("balance after claim: %s", got)
	}

	admin := NewAdminService(installs, nil, "8822")
	credited, err := admin.CreditReferral(ctx, "a", u.ID)
	if err != nil {
		t.Fatalf("CreditReferral: %v", err)
	}
	if credited.ReferralsCount != 1 || !credited.Balance.Equal(five) {
		t.Fatalf("after referral: %+v", credited)
	}

	svc := NewTaskService(installs, nil, 1)
	if _, err := svc.Verify(ctx, "a", tasks[0].ID); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	svc.Tick(ctx)
	if got := balanceOf(t, installs, "a"); !got.Equal(five) {
		t.Fatalf("balance after task: %s", got)
	}
}

func TestAdminRejectsNegativeAmounts(t *testing.T) {
	ctx := context.Background()
	installs := newInstalls()
	admin := NewAdminService(installs, nil, "8822")

	neg := decimal.NewFromInt(-100)
	for _, p := range []ConfigPatch{
		{MiningRate: &neg},
		{ReferralReward: &neg},
		{TaskReward: &neg},
		{MinWithdrawal: &neg},
		{ConversionRate: &neg},
	} {
		_, err := admin.UpdateConfig(ctx, "a", p)
		var ve *ValidationError
		if !errors.Is(err, ErrInvalidConfig) || !errors.As(err, &ve) {
			t.Fatalf("patch %+v: %v", p, err)
		}
	}
	duration := int64(-1)
	if _, err := admin.UpdateConfig(ctx, "a", ConfigPatch{MiningDuration: &duration}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("negative duration: %v", err)
	}

	cfg, err := admin.Config(ctx, "a")
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	if !cfg.MiningRate.Equal(domain.DefaultConfig().MiningRate) || cfg.MiningDuration != 3600 {
		t.Fatalf("rejected patch was written: %+v", cfg)
	}

	if _, err := admin.CreateTask(ctx, "a", TaskInput{Title: "Bad", Reward: &neg}); !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("negative task reward: %v", err)
	}
	tasks, _ := admin.Tasks(ctx, "a")
	if len(tasks) != 5 {
		t.Fatalf("rejected task was saved: %d tasks", len(tasks))
	}
}

func TestSessionTokens(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	svc := NewSessionService(newInstalls(), "secret", time.Hour, "", false)
	svc.now = clk.Now

	s, err := svc.Create(ctx, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.User.TelegramID != domain.DefaultTelegramID || s.User.Username != "CryptoExplorer" {
		t.Fatalf("default identity expected: %+v", s.User)
	}

	id, err := svc.Parse(s.Token)
	if err != nil || id != s.InstallID {
		t.Fatalf("Parse: %q, %v", id, err)
	}

	other := NewSessionService(newInstalls(), "other", time.Hour, "", false)
	other.now = clk.Now
	if _, err := other.Parse(s.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign secret: %v", err)
	}

	clk.Advance(2 * time.Hour)
	if _, err := svc.Parse(s.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: %v", err)
	}
}

func TestSessionTelegramIdentityInDevMode(t *testing.T) {
	svc := NewSessionService(newInstalls(), "secret", time.Hour, "", true)

	s, err := svc.Create(context.Background(), `user={"id":77,"username":"neo"}&auth_date=1`)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.User.TelegramID != "77" || s.User.Username != "neo" {
		t.Fatalf("identity: %+v", s.User)
	}

	if _, err := svc.Create(context.Background(), "user=notjson"); !errors.Is(err, ErrInvalidInitData) {
		t.Fatalf("expected ErrInvalidInitData, got %v", err)
	}
}
