// models.go
package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderState string

const (
	StatePendingPayment  OrderState = "pendiente_pago"
	StateProofUploaded   OrderState = "comprobante_subido"
	StatePaymentApproved OrderState = "pago_confirmado_vendedor"
	StateCompleted       OrderState = "completada"
	StateCancelled       OrderState = "cancelada"
)

func (s OrderState) Valid() bool {
	switch s {
	case StatePendingPayment, StateProofUploaded, StatePaymentApproved, StateCompleted, StateCancelled:
		return true
	}
	return false
}

// Final indica si la orden ya no admite transiciones.
func (s OrderState) Final() bool {
	return s == StateCompleted || s == StateCancelled
}

// Cancellable: solo antes de que el vendedor confirme el pago.
func (s OrderState) Cancellable() bool {
	return s == StatePendingPayment || s == StateProofUploaded
}

type PaymentType string

const (
	PaymentTransfer PaymentType = "transferencia"
	PaymentQR       PaymentType = "qr"
	PaymentPickup   PaymentType = "retiro"
	PaymentCard     PaymentType = "tarjeta"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentTransfer, PaymentQR, PaymentPickup, PaymentCard:
		return true
	}
	return false
}

// NeedsProof: pagos manuales que el comprador respalda con comprobante.
func (p PaymentType) NeedsProof() bool {
	return p == PaymentTransfer || p == PaymentQR
}

type Actor string

const (
	ActorBuyer  Actor = "comprador"
	ActorSeller Actor = "vendedor"
	ActorSystem Actor = "sistema"
)

type Order struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	BuyerID       primitive.ObjectID  `bson:"comprador" json:"comprador"`
	SellerID      primitive.ObjectID  `bson:"vendedor" json:"vendedor"`
	ProductID     primitive.ObjectID  `bson:"producto" json:"producto"`
	ProductName   string              `bson:"nombreProducto" json:"nombreProducto"`
	Quantity      int                 `bson:"cantidad" json:"cantidad"`
	UnitPrice     float64             `bson:"precioUnitario" json:"precioUnitario"`
	Subtotal      float64             `bson:"subtotal" json:"subtotal"`
	Total         float64             `bson:"total" json:"total"`
	State         OrderState          `bson:"estado" json:"estado"`
	PaymentType   PaymentType         `bson:"tipoPago" json:"tipoPago"`
	PaymentMethod *primitive.ObjectID `bson:"metodoPagoVendedor,omitempty" json:"metodoPagoVendedor,omitempty"`

	ProofURL        string `bson:"comprobantePago,omitempty" json:"comprobantePago,omitempty"`
	PaymentIntentID string `bson:"stripePaymentIntentId,omitempty" json:"stripePaymentIntentId,omitempty"`
	StockReserved   bool   `bson:"stockReservado" json:"stockReservado"`

	CancelReason string `bson:"motivoCancelacion,omitempty" json:"motivoCancelacion,omitempty"`
	CancelledBy  Actor  `bson:"canceladaPor,omitempty" json:"canceladaPor,omitempty"`

	History []StatusRecord `bson:"historial" json:"historial"`

	ProofUploadedAt   *time.Time `bson:"fechaComprobante,omitempty" json:"fechaComprobante,omitempty"`
	PaymentApprovedAt *time.Time `bson:"fechaPagoConfirmado,omitempty" json:"fechaPagoConfirmado,omitempty"`
	CompletedAt       *time.Time `bson:"fechaCompletada,omitempty" json:"fechaCompletada,omitempty"`
	CancelledAt       *time.Time `bson:"fechaCancelacion,omitempty" json:"fechaCancelacion,omitempty"`
	CreatedAt         time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// CurrentRecord devuelve el registro marcado como actual en el historial.
func (o *Order) CurrentRecord() *StatusRecord {
	for i := len(o.History) - 1; i >= 0; i-- {
		if o.History[i].Current {
			return &o.History[i]
		}
	}
	return nil
}

type StatusRecord struct {
	State     OrderState         `bson:"estado" json:"estado"`
	Reason    string             `bson:"motivo,omitempty" json:"motivo,omitempty"`
	ActorID   primitive.ObjectID `bson:"actor,omitempty" json:"actor,omitempty"`
	Actor     Actor              `bson:"rol" json:"rol"`
	Timestamp time.Time          `bson:"fecha" json:"fecha"`

	// Para marcar cuál es el último
	Current bool `bson:"current" json:"current"`
}

type ProductState string

const (
	ProductActive ProductState = "activo"
	ProductPaused ProductState = "pausado"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SellerID    primitive.ObjectID `bson:"vendedor" json:"vendedor"`
	Name        string             `bson:"nombre" json:"nombre"`
	Description string             `bson:"descripcion" json:"descripcion"`
	Category    string             `bson:"categoria" json:"categoria"`
	Price       float64            `bson:"precio" json:"precio"`
	Stock       int                `bson:"stock" json:"stock"`
	Sold        int                `bson:"vendidos" json:"vendidos"`
	Images      []string           `bson:"imagenes" json:"imagenes"`
	State       ProductState       `bson:"estado" json:"estado"`
	Rating      float64            `bson:"calificacionPromedio" json:"calificacionPromedio"`
	ReviewCount int                `bson:"totalResenas" json:"totalResenas"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PaymentMethod es una cuenta del vendedor donde recibe pagos manuales.
type PaymentMethod struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SellerID      primitive.ObjectID `bson:"vendedor" json:"vendedor"`
	Type          PaymentType        `bson:"tipo" json:"tipo"`
	Bank          string             `bson:"banco,omitempty" json:"banco,omitempty"`
	AccountNumber string             `bson:"numeroCuenta,omitempty" json:"numeroCuenta,omitempty"`
	Holder        string             `bson:"titular,omitempty" json:"titular,omitempty"`
	QRImageURL    string             `bson:"qrImagen,omitempty" json:"qrImagen,omitempty"`
	Details       string             `bson:"detalle,omitempty" json:"detalle,omitempty"`
	Active        bool               `bson:"activo" json:"activo"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID   primitive.ObjectID `bson:"orden" json:"orden"`
	ProductID primitive.ObjectID `bson:"producto" json:"producto"`
	BuyerID   primitive.ObjectID `bson:"comprador" json:"comprador"`
	Rating    int                `bson:"calificacion" json:"calificacion"`
	Comment   string             `bson:"comentario" json:"comentario"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type NotificationType string

const (
	NotifyOrderCreated     NotificationType = "orden_creada"
	NotifyProofUploaded    NotificationType = "comprobante_subido"
	NotifyPaymentConfirmed NotificationType = "pago_confirmado"
	NotifyOrderCompleted   NotificationType = "orden_completada"
	NotifyOrderCancelled   NotificationType = "orden_cancelada"
	NotifyNewReview        NotificationType = "nueva_resena"
)

type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"usuario" json:"usuario"`
	Type      NotificationType    `bson:"tipo" json:"tipo"`
	Message   string              `bson:"mensaje" json:"mensaje"`
	OrderID   *primitive.ObjectID `bson:"orden,omitempty" json:"orden,omitempty"`
	Read      bool                `bson:"leida" json:"leida"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	// único por evento y destinatario
	EventKey  string              `bson:"evento,omitempty" json:"-"`
}

// SalesSummary agrega las ventas de un vendedor.
type SalesSummary struct {
	CountByState map[OrderState]int `json:"porEstado"`
	Revenue      float64            `json:"ingresos"`
	UnitsSold    int                `json:"unidadesVendidas"`
}

// OrderFilter para los listados de órdenes. Los campos nulos no filtran.
type OrderFilter struct {
	BuyerID  *primitive.ObjectID
	SellerID *primitive.ObjectID
	State    OrderState
	Page     int
	Limit    int
}

// ProductUpdate lleva solo los campos que cambian. Stock se aplica solo si
// el stock guardado sigue siendo StockSeen.
type ProductUpdate struct {
	Name        *string
	Description *string
	Category    *string
	Price       *float64
	Images      []string
	State       *ProductState
	Stock       *int
	StockSeen   int
}

type ProductFilter struct {
	SellerID   *primitive.ObjectID
	Category   string
	Search     string
	OnlyActive bool
	Page       int
	Limit      int
}

// Transition describe un cambio de estado ya validado por el servicio.
// El repositorio lo aplica solo si la orden sigue en From.
type Transition struct {
	From   OrderState
	To     OrderState
	Record StatusRecord

	ProofURL     string
	CancelReason string
	CancelledBy  Actor
	// ReleaseStock marca stockReservado=false junto con la transición
	ReleaseStock bool
}
