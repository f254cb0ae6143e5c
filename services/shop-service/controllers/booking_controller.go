package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/capture-backend/services/shop-service/models"
	"github.com/yashrajoria/capture-backend/services/shop-service/services"
)

type BookingController struct {
	bookings *services.BookingService
}

func NewBookingController(bookings *services.BookingService) *BookingController {
	return &BookingController{bookings: bookings}
}

// SelectPackage returns a draft pre-filled from the chosen package.
func (bc *BookingController) SelectPackage(c *gin.Context) {
	var req models.SelectPackageRequest
	if !bind(c, &req) {
		return
	}
	draft, err := bc.bookings.SelectPackage(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

func (bc *BookingController) SubmitBooking(c *gin.Context) {
	var draft models.BookingDraft
	if !bind(c, &draft) {
		return
	}
	booking, err := bc.bookings.Submit(c.Request.Context(), currentUserID(c), draft)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}
