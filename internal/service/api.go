package service

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/response"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/validation"
)

// Deps is what the API router needs from the process.
type Deps struct {
	Store         storage.Store
	Authenticator auth.Authenticator
	JWT           *auth.JWTManager
	// Limiter guards the public routes. Nil disables limiting.
	Limiter *middleware.RateLimiter
	Options Options
}

// API builds the router served under /api.
func API(d Deps) http.Handler {
	b := base{store: d.Store, validate: validation.New(), opts: d.Options}

	users := NewUserService(b, d.Authenticator, d.JWT)
	businesses := NewBusinessService(b)
	customers := NewCustomerService(b)
	businessUsers := NewBusinessUserService(b)
	transactions := NewTransactionService(b)
	groups := NewGroupService(b)
	bills := NewBillService(b)
	friends := NewFriendService(b)
	payments := NewPaymentService(b)

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusNotFound, "Route not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.Group(func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(d.Limiter.Handler)
		}
		r.Post("/user/register", handle("register", users.Register))
		r.Post("/user/login", handle("login", users.Login))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.JWT, d.Store))

		r.Route("/user", func(r chi.Router) {
			r.Post("/logout", handle("logout", users.Logout))
			r.Get("/profile", handle("profile", users.Profile))
			r.Post("/updateProfile", handle("update profile", users.UpdateProfile))
			r.Post("/changePassword", handle("change password", users.ChangePassword))
			r.Delete("/delete", handle("delete user", users.Delete))
		})

		r.Route("/businesses", func(r chi.Router) {
			r.Get("/", handle("list businesses", businesses.List))
			r.Post("/", handle("create business", businesses.Create))
			r.Get("/{id}", handle("show business", businesses.Show))
			r.Put("/{id}", handle("update business", businesses.Update))
			r.Delete("/{id}", handle("delete business", businesses.Delete))
		})
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", handle("list customers", customers.List))
			r.Post("/", handle("create customer", customers.Create))
			r.Get("/{id}", handle("show customer", customers.Show))
			r.Put("/{id}", handle("update customer", customers.Update))
			r.Delete("/{id}", handle("delete customer", customers.Delete))
		})
		r.Route("/business-users", func(r chi.Router) {
			r.Get("/", handle("list business users", businessUsers.List))
			r.Post("/", handle("create business user", businessUsers.Create))
			r.Put("/{id}", handle("update business user", businessUsers.Update))
			r.Delete("/{id}", handle("delete business user", businessUsers.Delete))
		})
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", handle("list transactions", transactions.List))
			r.Post("/", handle("create transaction", transactions.Create))
			r.Get("/{id}", handle("show transaction", transactions.Show))
			r.Put("/{id}", handle("update transaction", transactions.Update))
			r.Delete("/{id}", handle("delete transaction", transactions.Delete))
		})

		r.Route("/group", func(r chi.Router) {
			r.Get("/types", handle("group types", groups.Types))
			r.Post("/create", handle("create group", groups.Create))
			r.Post("/update", handle("update group", groups.Update))
			r.Delete("/delete", handle("delete group", groups.Delete))
			r.Post("/user/add", handle("add group users", groups.AddUsers))
			r.Delete("/user/remove", handle("remove group users", groups.RemoveUsers))
			r.Delete("/user/leave", handle("leave group", groups.Leave))
			r.Get("/user/listofGroup", handle("list groups", groups.ListOfGroup))
			r.Get("/user/listofUser", handle("list group users", groups.ListOfUser))
		})

		r.Post("/bill/add", handle("add bill", bills.Add))
		r.Get("/bill/list/byGroup", handle("list group bills", bills.ListByGroup))

		r.Route("/v2", func(r chi.Router) {
			r.Get("/bill/hostedby", handle("hosted bills", bills.Hosted))
			r.Get("/bill/byfriend", handle("borrowed bills", bills.ByFriend))
			r.Get("/billDetails/byBillId", handle("bill details", bills.Details))
			r.Get("/friendlist/remainingpayments", handle("remaining payments", friends.RemainingPayments))
			r.Get("/billList/history/friend", handle("friend history", friends.History))
		})

		r.Route("/payment/request", func(r chi.Router) {
			r.Post("/", handle("request payment", payments.Request))
			r.Get("/senderlist", handle("sent payment requests", payments.SenderList))
			r.Get("/receiverlist", handle("received payment requests", payments.ReceiverList))
		})
		r.Post("/payment-request/accept/createbill", handle("accept payment", payments.Accept))
		r.Post("/payment-request/reject", handle("reject payment", payments.Reject))
	})

	return r
}
