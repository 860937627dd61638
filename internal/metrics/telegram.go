package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		telegramCommandsReceivedTotal,
		adminCommandTotal,
		handlerPanicsTotal,
	)
}

var (
	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming commands and button presses by command name.",
		},
		[]string{"command", "source"}, // source: 'command', 'button'
	)

	adminCommandTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_command_total",
			Help: "Tracks attempts to use admin commands.",
		},
		[]string{"command", "status"}, // status: 'authorized', 'unauthorized'
	)

	handlerPanicsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_handler_panics_total",
			Help: "Total number of handler panics recovered by the dispatcher middleware.",
		},
	)
)

func IncTelegramCommand(command, source string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command), norm(source)).Inc()
}

func IncAdminCommand(command, status string) {
	adminCommandTotal.WithLabelValues(norm(command), norm(status)).Inc()
}

func IncHandlerPanic() {
	handlerPanicsTotal.Inc()
}
