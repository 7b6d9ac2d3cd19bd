// dto.go
package dto

import "poliventas-service/internal/model"

// CreateOrderRequest: metodoPagoId es obligatorio para transferencia y qr
type CreateOrderRequest struct {
	ProductID       string `json:"productoId" binding:"required"`
	Quantity        int    `json:"cantidad" binding:"required,min=1"`
	PaymentType     string `json:"tipoPago" binding:"required,oneof=transferencia qr retiro tarjeta"`
	PaymentMethodID string `json:"metodoPagoId"`
}

type UploadProofRequest struct {
	ProofURL string `json:"comprobanteUrl" binding:"required,url"`
}

type CancelOrderRequest struct {
	Reason string `json:"motivo" binding:"max=500"`
}

// OrderListQuery aplica a compras, ventas y al listado de admin
type OrderListQuery struct {
	State string `form:"estado"`
	Page  int    `form:"page" binding:"omitempty,min=1"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type PaymentIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type CreateOrderResponse struct {
	Order   *model.Order           `json:"orden"`
	Payment *PaymentIntentResponse `json:"pago,omitempty"`
}

type CreateProductRequest struct {
	Name        string   `json:"nombre" binding:"required,max=120"`
	Description string   `json:"descripcion" binding:"max=2000"`
	Category    string   `json:"categoria" binding:"required"`
	Price       float64  `json:"precio" binding:"required,gt=0"`
	Stock       int      `json:"stock" binding:"min=0"`
	Images      []string `json:"imagenes" binding:"omitempty,dive,url"`
}

// UpdateProductRequest: los campos ausentes no cambian
type UpdateProductRequest struct {
	Name        *string  `json:"nombre" binding:"omitempty,max=120"`
	Description *string  `json:"descripcion" binding:"omitempty,max=2000"`
	Category    *string  `json:"categoria"`
	Price       *float64 `json:"precio" binding:"omitempty,gt=0"`
	Stock       *int     `json:"stock" binding:"omitempty,min=0"`
	Images      []string `json:"imagenes" binding:"omitempty,dive,url"`
	State       *string  `json:"estado" binding:"omitempty,oneof=activo pausado"`
}

type ProductListQuery struct {
	Category string `form:"categoria"`
	Search   string `form:"q"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

type PaymentMethodRequest struct {
	Type          string `json:"tipo" binding:"required,oneof=transferencia qr retiro"`
	Bank          string `json:"banco"`
	AccountNumber string `json:"numeroCuenta"`
	Holder        string `json:"titular"`
	QRImageURL    string `json:"qrImagen" binding:"omitempty,url"`
	Details       string `json:"detalle"`
	// Active solo se usa en PUT; nil lo deja activo
	Active *bool `json:"activo"`
}

type CreateReviewRequest struct {
	OrderID string `json:"ordenId" binding:"required"`
	Rating  int    `json:"calificacion" binding:"required,min=1,max=5"`
	Comment string `json:"comentario" binding:"max=1000"`
}

type PageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type NotificationListQuery struct {
	UnreadOnly bool `form:"soloNoLeidas"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"actualizadas"`
}
