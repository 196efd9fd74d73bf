package enum

// ── Payment methods (offered on the checkout screen) ──

const (
	PaymentMethodCash  = "cash"
	PaymentMethodQR    = "qr"
	PaymentMethodCard  = "card"
	PaymentMethodOther = "other"
)

// PaymentMethods lists the accepted methods in checkout display order.
var PaymentMethods = []string{
	PaymentMethodCash,
	PaymentMethodQR,
	PaymentMethodCard,
	PaymentMethodOther,
}

// IsValidPaymentMethod reports whether s is an accepted payment method.
func IsValidPaymentMethod(s string) bool {
	for _, m := range PaymentMethods {
		if m == s {
			return true
		}
	}
	return false
}

// ── Event types pushed over the websocket ──

const (
	EventOrderUpdated   = "order.updated"
	EventOrderPaid      = "order.paid"
	EventPricingUpdated = "pricing.updated"
)

// ── Export sinks ──

const (
	SinkLog      = "log"
	SinkWebhook  = "webhook"
	SinkPostgres = "postgres"
	SinkRabbitMQ = "rabbitmq"
	SinkMongo    = "mongodb"
	SinkKafka    = "kafka"
)
