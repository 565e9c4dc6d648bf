package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/napryag/barber_booking_bot/pkg/api"
	"github.com/napryag/barber_booking_bot/pkg/booking"
	"github.com/napryag/barber_booking_bot/pkg/bot/receiver"
	"github.com/napryag/barber_booking_bot/pkg/bot/receiver/config"
	"github.com/napryag/barber_booking_bot/pkg/utils/errs"
)

type app struct {
	cfg    *config.Config
	client *api.Client
	bot    *tgbotapi.BotAPI
	store  *receiver.Store
	logger zerolog.Logger
}

func main() {

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Err(errs.New("failed to load config").Wrap(err)).Msg("config init")
		return
	}

	client := api.New(cfg.APIBaseURL, cfg.HTTPTimeout())

	// Контекст, завершающийся по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.LoginEmail != "" {
		user, err := client.Login(ctx, cfg.LoginEmail, cfg.LoginPassword)
		if err != nil {
			logger.Error().Err(err).Msg("backend login failed")
			return
		}
		logger.Info().Str("user", user.Name).Msg("authenticated with backend")
	} else {
		logger.Warn().Msg("no backend credentials configured, requests will be anonymous")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("create bot api")
		return
	}
	bot.Debug = false

	logger.Info().Str("bot", bot.Self.UserName).Msg("authorized")

	a := &app{
		cfg:    cfg,
		client: client,
		bot:    bot,
		store:  receiver.NewStore(),
		logger: logger,
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 10
	updates := bot.GetUpdatesChan(u)

	// Останавливаем лонг-поллинг по завершению контекста
	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down bot")
		bot.StopReceivingUpdates()
	}()

	for update := range updates {
		if m := update.Message; m != nil {
			a.handleMessage(m)
			continue
		}
		if cq := update.CallbackQuery; cq != nil {
			a.handleCallback(ctx, cq)
		}
	}
	logger.Info().Msg("bot stopped")
}

func (a *app) handleMessage(m *tgbotapi.Message) {
	sess := a.store.Get(m.From.ID)

	if m.IsCommand() && m.Command() == "start" {
		sess.Lock()
		sess.ResetFlow()
		sess.Screen = receiver.ScreenStart
		sess.Unlock()

		_, _ = a.bot.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID))

		msg := tgbotapi.NewMessage(m.Chat.ID, fmt.Sprintf(
			"Olá, %s!\nEste bot agenda seus horários na barbearia: escolha o serviço, a data e o horário. Toque em COMEÇAR.",
			m.From.FirstName,
		))
		msg.ReplyMarkup = receiver.StartMenu()
		if _, err := a.bot.Send(msg); err != nil {
			a.logger.Warn().Err(err).Msg("send start menu")
		}
		return
	}

	// Любой произвольный текст — удаляем (если возможно) и напоминаем
	_, _ = a.bot.Request(tgbotapi.NewDeleteMessage(m.Chat.ID, m.MessageID))

	remind := tgbotapi.NewMessage(m.Chat.ID, "Use os botões, por favor 👆")
	sent, _ := a.bot.Send(remind)
	go func(chatID int64, mid int) {
		time.Sleep(5 * time.Second)
		_, _ = a.bot.Request(tgbotapi.NewDeleteMessage(chatID, mid))
	}(sent.Chat.ID, sent.MessageID)
}

func (a *app) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	sess := a.store.Get(cq.From.ID)
	chatID := cq.Message.Chat.ID
	messageID := cq.Message.MessageID
	data := cq.Data

	sess.Lock()
	defer sess.Unlock()

	switch {
	case data == receiver.CbStart:
		sess.Go(receiver.ScreenMain)

	case data == receiver.CbBook:
		// Fresh provider details on every flow entry, like a screen mount.
		provider, err := a.client.GetProvider(ctx, a.cfg.ProviderID)
		if err != nil {
			sess.Notice = err.Error()
			break
		}
		sess.Provider = provider
		sess.Booking.Reset()
		sess.Go(receiver.ScreenService)

	case data == receiver.CbMy:
		appts, err := a.client.ListAppointments(ctx)
		if err != nil {
			sess.Notice = err.Error()
			break
		}
		sess.Appointments = appts
		sess.Go(receiver.ScreenMy)

	case data == receiver.CbHelp:
		sess.Go(receiver.ScreenHelp)

	case data == receiver.CbBack:
		sess.Back()

	case strings.HasPrefix(data, receiver.PSvc):
		val, _ := receiver.Is(data, receiver.PSvc)
		sess.Booking.SetService(val)
		sess.Go(receiver.ScreenDate)

	case strings.HasPrefix(data, receiver.PD):
		val, _ := receiver.Is(data, receiver.PD)
		a.handleDatePick(ctx, sess, val, chatID, messageID)

	case strings.HasPrefix(data, receiver.PT):
		val, _ := receiver.Is(data, receiver.PT)
		if err := sess.Booking.SelectSlot(val); err != nil {
			sess.Notice = err.Error()
		} else {
			sess.Go(receiver.ScreenConfirm)
		}

	case data == receiver.CbOk:
		a.handleConfirm(ctx, sess, chatID, messageID)
	}

	a.render(sess, chatID, messageID)
	_, _ = a.bot.Request(tgbotapi.NewCallback(cq.ID, ""))
}

// handleDatePick re-checks the availability gate before accepting the day:
// the keyboard could have been rendered yesterday.
func (a *app) handleDatePick(ctx context.Context, sess *receiver.Session, iso string, chatID int64, messageID int) {
	day, err := time.Parse("2006-01-02", iso)
	var weekdays []int
	if sess.Provider != nil {
		weekdays = sess.Provider.Weekdays
	}
	if err != nil || !booking.IsDayEnabled(day, weekdays, time.Now(), a.cfg.HorizonDays) {
		sess.Notice = "Essa data não está mais disponível. Escolha outra."
		return
	}
	sess.Booking.SetDate(day)
	sess.Go(receiver.ScreenSlots)
	a.loadSlots(ctx, sess, chatID, messageID)
}

func (a *app) handleConfirm(ctx context.Context, sess *receiver.Session, chatID int64, messageID int) {
	serviceID, slotISO, err := sess.Booking.ConfirmTarget()
	if err != nil {
		// Local validation failure, no request is made.
		sess.Notice = err.Error()
		return
	}

	_, err = a.client.CreateAppointment(ctx, a.cfg.ProviderID, serviceID, slotISO, "")
	if err == nil {
		sess.Booking.MarkBooked()
		sess.ResetFlow()
		sess.Notice = "Agendamento confirmado ✅"
		return
	}

	var conflict *booking.ConflictError
	if errors.As(err, &conflict) {
		// Someone claimed the slot between fetch and submit: warn and
		// refresh the list for the same service and date.
		a.logger.Info().Str("slot", slotISO).Msg("booking conflict, refreshing slots")
		sess.Notice = conflict.Msg
		sess.Back() // ScreenConfirm -> ScreenSlots
		sess.Booking.ClearSlots()
		a.loadSlots(ctx, sess, chatID, messageID)
		return
	}

	sess.Notice = err.Error()
}

// loadSlots dispatches the slot fetch on its own goroutine so the update
// loop stays responsive. The session's query guard drops the response if
// the user changed service or date meanwhile.
func (a *app) loadSlots(ctx context.Context, sess *receiver.Session, chatID int64, messageID int) {
	q, err := sess.Booking.BeginSlotLoad()
	if err != nil {
		sess.Notice = err.Error()
		return
	}

	go func() {
		slots, err := a.client.ListSlots(ctx, a.cfg.ProviderID, q.ServiceID, q.Date)

		sess.Lock()
		defer sess.Unlock()

		if err != nil {
			sess.Booking.AbortSlotLoad(q)
			sess.Notice = err.Error()
		} else if !sess.Booking.ApplySlots(q, slots) {
			// Stale response for an abandoned selection.
			a.logger.Debug().Time("date", q.Date).Msg("dropping stale slot response")
			return
		}

		if sess.Screen == receiver.ScreenSlots {
			a.render(sess, chatID, messageID)
		}
	}()
}

func (a *app) render(sess *receiver.Session, chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, messageID,
		receiver.RenderText(sess),
		receiver.RenderKeyboard(sess, time.Now(), a.cfg.HorizonDays),
	)
	if _, err := a.bot.Send(edit); err != nil {
		a.logger.Warn().Err(err).Msg("render failed")
	}
}
