package receiver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/napryag/barber_booking_bot/pkg/booking"
	"github.com/napryag/barber_booking_bot/pkg/model"
)

// ---------- FSM ----------

type Screen int

const (
	ScreenStart Screen = iota
	ScreenMain
	ScreenService
	ScreenDate
	ScreenSlots
	ScreenConfirm
	ScreenMy
	ScreenHelp
)

// Session is the per-user conversation state: which screen is shown, the
// navigation history for Back, and the booking selection itself.
//
// The update loop is single-threaded, but slot loads complete on their own
// goroutine and re-render, so the session carries a mutex; callers hold it
// across mutate-and-render.
type Session struct {
	mu sync.Mutex

	Screen  Screen
	history []Screen

	Provider     *model.Provider
	Booking      *booking.Session
	Appointments []model.Appointment

	// Notice is a one-shot line rendered above the screen text, e.g. a
	// conflict warning. Cleared after the next render.
	Notice string
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

func (s *Session) Go(to Screen) {
	s.history = append(s.history, s.Screen)
	s.Screen = to
}

func (s *Session) Back() {
	if n := len(s.history); n > 0 {
		s.Screen = s.history[n-1]
		s.history = s.history[:n-1]
	} else {
		s.Screen = ScreenMain
	}
	// Navigating back out of the slot flow invalidates the selection the
	// same way changing it would.
	switch s.Screen {
	case ScreenMain, ScreenService:
		s.Booking.Reset()
	case ScreenDate:
		s.Booking.ClearSlots()
	}
}

func (s *Session) ResetFlow() {
	s.Screen = ScreenMain
	s.history = s.history[:0]
	s.Booking.Reset()
	s.Notice = ""
}

// ---------- Callback keys ----------

const (
	CbStart = "start"
	CbBook  = "book"
	CbMy    = "my"
	CbHelp  = "help"
	CbBack  = "back"
	CbOk    = "confirm"

	PSvc = "svc:" // svc:<service id>
	PD   = "d:"   // d:2025-11-27
	PT   = "t:"   // t:2025-11-27T13:00:00Z
)

func Is(k, prefix string) (string, bool) {
	if strings.HasPrefix(k, prefix) {
		return strings.TrimPrefix(k, prefix), true
	}
	return "", false
}

// ---------- UI builders ----------

func StartMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("COMEÇAR", CbStart)),
	)
}

func MainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("💈 Novo agendamento", CbBook)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📅 Meus agendamentos", CbMy)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("❓ Ajuda", CbHelp)),
	)
}

// ServiceMenu lists the provider's catalog, one service per row with
// duration and the price when the backend sent one.
func ServiceMenu(p *model.Provider) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if p != nil {
		for _, svc := range p.Services {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(ServiceLabel(svc), PSvc+svc.ID),
			))
		}
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func ServiceLabel(svc model.Service) string {
	label := fmt.Sprintf("%s · %d min", svc.Name, svc.Duration)
	if svc.Price != nil {
		label += fmt.Sprintf(" · R$ %.0f", *svc.Price)
	}
	return label
}

// DateMenu offers only the days the availability gate enables: inside the
// horizon and on one of the provider's weekdays.
func DateMenu(weekdays []int, today time.Time, horizonDays int) tgbotapi.InlineKeyboardMarkup {
	days := booking.SelectableDates(today, weekdays, horizonDays)

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, d := range days {
		iso := d.Format("2006-01-02")
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(HumanDate(iso), PD+iso))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// SlotMenu renders the loaded slots in a 3-wide grid, sorted for display.
// For same-day RFC 3339 UTC timestamps lexicographic order is
// chronological; the backend itself promises no order.
func SlotMenu(slots []string) tgbotapi.InlineKeyboardMarkup {
	sorted := append([]string(nil), slots...)
	sort.Strings(sorted)

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, iso := range sorted {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(FormatHour(iso), PT+iso))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func ConfirmMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Confirmar agendamento", CbOk)),
		backRow(),
	)
}

func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Voltar", CbBack))
}

func HumanDate(iso string) string {
	t, _ := time.Parse("2006-01-02", iso)
	return t.Format("02.01 (Mon)")
}

// FormatHour shows just the time of day of an ISO slot timestamp.
func FormatHour(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.Format("15:04")
}

// ---------- Rendering ----------

func RenderText(sess *Session) string {
	var b strings.Builder
	if sess.Notice != "" {
		b.WriteString(sess.Notice)
		b.WriteString("\n\n")
		sess.Notice = ""
	}

	switch sess.Screen {
	case ScreenMain:
		b.WriteString("Escolha uma opção:")
	case ScreenService:
		if sess.Provider == nil || len(sess.Provider.Services) == 0 {
			b.WriteString("Nenhum serviço cadastrado para este barbeiro.")
		} else {
			b.WriteString("Escolha o serviço:")
		}
	case ScreenDate:
		if sess.Provider != nil && len(sess.Provider.Weekdays) == 0 {
			b.WriteString("Este barbeiro ainda não configurou sua agenda.")
		} else {
			b.WriteString("Escolha a data:")
		}
	case ScreenSlots:
		if sess.Booking.Loading() {
			b.WriteString("Carregando horários...")
		} else if len(sess.Booking.Slots()) == 0 {
			b.WriteString("Nenhum horário disponível para essa data. Tente outro dia. 😢")
		} else {
			b.WriteString("Horários disponíveis:")
		}
	case ScreenConfirm:
		name := ""
		if sess.Provider != nil {
			if svc := sess.Provider.ServiceByID(sess.Booking.ServiceID()); svc != nil {
				name = svc.Name
			}
		}
		fmt.Fprintf(&b, "Confira o agendamento:\nServiço: %s\nData: %s\nHorário: %s",
			name,
			HumanDate(sess.Booking.Date().Format("2006-01-02")),
			FormatHour(sess.Booking.Slot()),
		)
	case ScreenMy:
		if len(sess.Appointments) == 0 {
			b.WriteString("Você ainda não tem agendamentos.")
		} else {
			b.WriteString("Seus agendamentos:\n")
			for _, a := range sess.Appointments {
				name := ""
				if a.Service != nil {
					name = " · " + a.Service.Name
				}
				fmt.Fprintf(&b, "— %s %s%s (%s)\n",
					a.Date.Format("02.01"), a.Date.Format("15:04"), name, a.Status)
			}
		}
	case ScreenHelp:
		b.WriteString("Toque em «Novo agendamento», escolha o serviço, a data e o horário, e confirme. Em «Meus agendamentos» você acompanha suas reservas.")
	default:
		b.WriteString("Menu")
	}
	return b.String()
}

func RenderKeyboard(sess *Session, today time.Time, horizonDays int) tgbotapi.InlineKeyboardMarkup {
	switch sess.Screen {
	case ScreenStart:
		return StartMenu()
	case ScreenMain:
		return MainMenu()
	case ScreenService:
		return ServiceMenu(sess.Provider)
	case ScreenDate:
		var weekdays []int
		if sess.Provider != nil {
			weekdays = sess.Provider.Weekdays
		}
		return DateMenu(weekdays, today, horizonDays)
	case ScreenSlots:
		return SlotMenu(sess.Booking.Slots())
	case ScreenConfirm:
		return ConfirmMenu()
	case ScreenMy, ScreenHelp:
		return tgbotapi.NewInlineKeyboardMarkup(backRow())
	default:
		return MainMenu()
	}
}
