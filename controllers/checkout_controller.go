package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/paymentmethod"
	"gorm.io/gorm"

	"recomendaleads/config"
	"recomendaleads/models"
	"recomendaleads/utils"
)

// InitStripe wires the Stripe client key from configuration.
func InitStripe() {
	stripe.Key = config.AppConfig.StripeSecretKey
}

type CheckoutController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewCheckoutController(db *gorm.DB, logger *log.Logger) *CheckoutController {
	return &CheckoutController{DB: db, Logger: logger}
}

type checkoutInput struct {
	Name  string `json:"name" validate:"required,max=150"`
	Email string `json:"email" validate:"required,email"`
	CPF   string `json:"cpf" validate:"required,min=11,max=14"`
	Phone string `json:"phone" validate:"required,phone"`

	AmountCents int64 `json:"amountCents" validate:"required,gt=0"`

	CardNumber   string `json:"cardNumber" validate:"required,min=13,max=19"`
	CardExpMonth int64  `json:"cardExpMonth" validate:"required,min=1,max=12"`
	CardExpYear  int64  `json:"cardExpYear" validate:"required,min=2024"`
	CardCVC      string `json:"cardCvc" validate:"required,min=3,max=4"`
}

// CreateOrder charges the card through Stripe and records the order. This is
// the public checkout endpoint, it runs without a session.
func (cc *CheckoutController) CreateOrder(c *fiber.Ctx) error {
	var input checkoutInput
	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	pm, err := paymentmethod.New(&stripe.PaymentMethodParams{
		Type: stripe.String("card"),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(input.CardNumber),
			ExpMonth: stripe.Int64(input.CardExpMonth),
			ExpYear:  stripe.Int64(input.CardExpYear),
			CVC:      stripe.String(input.CardCVC),
		},
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name:  stripe.String(input.Name),
			Email: stripe.String(input.Email),
			Phone: stripe.String(input.Phone),
		},
	})
	if err != nil {
		cc.Logger.Printf("Failed to create payment method: %v", err)
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Cartão recusado", nil)
	}

	pi, err := paymentintent.New(&stripe.PaymentIntentParams{
		Amount:        stripe.Int64(input.AmountCents),
		Currency:      stripe.String(string(stripe.CurrencyBRL)),
		PaymentMethod: stripe.String(pm.ID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
		Metadata: map[string]string{
			"cpf":   input.CPF,
			"email": input.Email,
		},
		Description: stripe.String("Pedido RecomendaLeads"),
	})

	order := models.CheckoutOrder{
		CustomerName:  input.Name,
		CustomerEmail: input.Email,
		CPF:           input.CPF,
		Phone:         input.Phone,
		AmountCents:   input.AmountCents,
		Status:        "pending",
	}
	if err != nil {
		cc.Logger.Printf("Payment intent failed: %v", err)
		order.Status = "failed"
		if dbErr := cc.DB.Create(&order).Error; dbErr != nil {
			cc.Logger.Printf("Failed to record failed order: %v", dbErr)
		}
		return utils.ErrorResponse(c, fiber.StatusPaymentRequired, "Pagamento recusado", nil)
	}

	order.StripePaymentIntentID = pi.ID
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		order.Status = "succeeded"
	}
	if err := cc.DB.Create(&order).Error; err != nil {
		cc.Logger.Printf("Failed to record order: %v", err)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to record order", nil)
	}

	utils.LogEvent("checkout_order_created", map[string]interface{}{
		"order_id":     order.ID,
		"amount_cents": order.AmountCents,
		"status":       order.Status,
	})

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(fiber.Map{
		"message": "Pedido criado com sucesso",
		"orderId": order.ID,
		"status":  order.Status,
	}))
}
