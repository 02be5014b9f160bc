package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"DivergenceSentinel/internal/notifier"
	"DivergenceSentinel/internal/recorder"
	"DivergenceSentinel/internal/scanner"
)

// HistoryLimit is the number of records returned by the history command.
const HistoryLimit = 10

// Sender delivers a message to the chat.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the daily watchlist scan and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Scanner  *scanner.Scanner
	Notifier Sender
	Recorder recorder.Recorder
	Calendar *TradingCalendar
	Ctx      context.Context
}

// NewScheduler creates a Scheduler whose cron runs in exchange time. tn may be nil,
// in which case messages are only logged.
func NewScheduler(ctx context.Context, sc *scanner.Scanner, tn Sender, rec recorder.Recorder, cal *TradingCalendar) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if cal == nil {
		cal = NewTradingCalendar("xshg")
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(cal.Location)),
		Scanner:  sc,
		Notifier: tn,
		Recorder: rec,
		Calendar: cal,
		Ctx:      ctx,
	}
}

// Register adds the daily scan job.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.dailyScan); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunScanNow scans the watchlist immediately, regardless of the calendar.
func (s *Scheduler) RunScanNow(trigger string) {
	s.scan(trigger)
}

func (s *Scheduler) dailyScan() {
	if now := time.Now(); !s.Calendar.IsTradingDay(now) {
		log.Printf("[INFO] %s is not a trading day, skipping scan", now.In(s.Calendar.Location).Format("2006-01-02"))
		return
	}
	s.scan("schedule")
}

func (s *Scheduler) scan(trigger string) {
	log.Printf("[INFO] running watchlist scan (%s)", trigger)
	report, err := s.Scanner.Scan(s.Ctx, trigger)
	if err != nil {
		log.Printf("[ERROR] scan: %v", err)
		s.trySend(fmt.Sprintf("❌ 自选扫描失败: %v", err))
		return
	}
	s.trySend(notifier.FormatScanSummary(report))
}

// HandleCommand processes a chat command and returns the reply. An empty
// reply means the result was already pushed.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	cmd, args := fields[0], fields[1:]
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/analyze", "分析":
		if len(args) == 0 {
			return "用法: /analyze 600519"
		}
		return s.analyze(ctx, args[0])
	case "/scan", "扫描":
		go s.scan("command")
		return "⏳ 正在扫描自选列表..."
	case "/add", "添加":
		if len(args) == 0 {
			return "用法: /add 600519 [名称]"
		}
		item, err := s.Scanner.Watchlist.Add(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return fmt.Sprintf("❌ 添加 %s 失败: %s", args[0], notifier.FailureReason(err))
		}
		return notifier.FormatAdded(item)
	case "/del", "删除":
		if len(args) == 0 {
			return "用法: /del 600519"
		}
		if err := s.Scanner.Watchlist.Remove(ctx, args[0]); err != nil {
			return fmt.Sprintf("❌ 删除 %s 失败: %s", args[0], notifier.FailureReason(err))
		}
		return fmt.Sprintf("🗑 %s 已从自选删除", args[0])
	case "/list", "自选":
		items, err := s.Scanner.Watchlist.List(ctx)
		if err != nil {
			return fmt.Sprintf("❌ 读取自选失败: %v", err)
		}
		return notifier.FormatWatchlist(items)
	case "/history", "历史":
		records, err := s.Recorder.RecentAnalyses(ctx, HistoryLimit)
		if err != nil {
			return fmt.Sprintf("❌ 读取历史失败: %v", err)
		}
		return notifier.FormatHistory(records)
	default:
		if len(fields) == 1 && len(cmd) == 6 && isDigits(cmd) {
			return s.analyze(ctx, cmd)
		}
		return helpText
	}
}

const helpText = `可用命令:
• /analyze 600519 分析单只股票 (也可直接发送代码)
• /scan 扫描自选列表
• /add 600519 [名称] 加入自选
• /del 600519 删除自选
• /list 查看自选
• /history 最近分析记录`

func (s *Scheduler) analyze(ctx context.Context, code string) string {
	rep, err := s.Scanner.AnalyzeOne(ctx, code)
	if err != nil {
		return fmt.Sprintf("❌ %s 分析失败: %s", code, notifier.FailureReason(err))
	}
	return notifier.FormatAnalysis(rep)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		log.Printf("[INFO] notification (telegram disabled):\n%s", text)
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
