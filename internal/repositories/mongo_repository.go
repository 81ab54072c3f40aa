package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"rightmycv/internal/infra"
	"rightmycv/internal/models/db_models"
	"rightmycv/pkg/entitlement"
)

// Mongo backends selected with DB_DRIVER=mongo. Documents carry string ids and
// are mapped to and from the gorm models at the boundary.

type accountDoc struct {
	ID               string    `bson:"_id"`
	Email            string    `bson:"email"`
	FirstName        string    `bson:"first_name"`
	LastName         string    `bson:"last_name"`
	SubscriptionPlan string    `bson:"subscription_plan"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func toAccountDoc(a *db_models.Account) accountDoc {
	return accountDoc{
		ID:               a.ID.String(),
		Email:            a.Email,
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		SubscriptionPlan: a.SubscriptionPlan,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func (d accountDoc) model() *db_models.Account {
	a := &db_models.Account{
		Email:            d.Email,
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		SubscriptionPlan: d.SubscriptionPlan,
	}
	a.ID, _ = uuid.Parse(d.ID)
	a.CreatedAt, a.UpdatedAt = d.CreatedAt, d.UpdatedAt
	return a
}

type mongoAccountRepository struct {
	coll *mongo.Collection
}

func NewMongoAccountRepository(db *mongo.Database) AccountRepository {
	return &mongoAccountRepository{coll: db.Collection(infra.CollAccounts)}
}

func (r *mongoAccountRepository) Insert(ctx context.Context, account *db_models.Account) error {
	account.EnsureDefaults(time.Now())
	if account.SubscriptionPlan == "" {
		account.SubscriptionPlan = string(entitlement.TierFree)
	}
	_, err := r.coll.InsertOne(ctx, toAccountDoc(account))
	return err
}

func (r *mongoAccountRepository) findOne(ctx context.Context, filter bson.M) (*db_models.Account, error) {
	var d accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return d.model(), nil
}

func (r *mongoAccountRepository) FindById(ctx context.Context, id string) (*db_models.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoAccountRepository) FindByEmail(ctx context.Context, email string) (*db_models.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoAccountRepository) UpdateSubscriptionPlan(ctx context.Context, id uuid.UUID, plan string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"subscription_plan": plan, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

type planDoc struct {
	ID               string    `bson:"_id"`
	Name             string    `bson:"name"`
	Description      string    `bson:"description"`
	PriceUSD         float64   `bson:"price_usd"`
	PriceNGN         float64   `bson:"price_ngn"`
	BillingCycle     string    `bson:"billing_cycle"`
	Features         []string  `bson:"features"`
	IsActive         bool      `bson:"is_active"`
	StripePriceID    *string   `bson:"stripe_price_id,omitempty"`
	PaystackPlanCode *string   `bson:"paystack_plan_code,omitempty"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func toPlanDoc(p *db_models.Plan) planDoc {
	return planDoc{
		ID:               p.ID.String(),
		Name:             p.Name,
		Description:      p.Description,
		PriceUSD:         p.PriceUSD,
		PriceNGN:         p.PriceNGN,
		BillingCycle:     string(p.BillingCycle),
		Features:         []string(p.Features),
		IsActive:         p.IsActive,
		StripePriceID:    p.StripePriceID,
		PaystackPlanCode: p.PaystackPlanCode,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func (d planDoc) model() db_models.Plan {
	p := db_models.Plan{
		Name:             d.Name,
		Description:      d.Description,
		PriceUSD:         d.PriceUSD,
		PriceNGN:         d.PriceNGN,
		BillingCycle:     entitlement.BillingCycle(d.BillingCycle),
		Features:         d.Features,
		IsActive:         d.IsActive,
		StripePriceID:    d.StripePriceID,
		PaystackPlanCode: d.PaystackPlanCode,
	}
	p.ID, _ = uuid.Parse(d.ID)
	p.CreatedAt, p.UpdatedAt = d.CreatedAt, d.UpdatedAt
	return p
}

type mongoPlanRepository struct {
	coll *mongo.Collection
}

func NewMongoPlanRepository(db *mongo.Database) IPlanRepository {
	return &mongoPlanRepository{coll: db.Collection(infra.CollPlans)}
}

func (r *mongoPlanRepository) findOne(ctx context.Context, filter bson.M) (*db_models.Plan, error) {
	var d planDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	p := d.model()
	return &p, nil
}

func (r *mongoPlanRepository) GetPlanInfoById(ctx context.Context, planID string) (*db_models.Plan, error) {
	return r.findOne(ctx, bson.M{"_id": planID})
}

func (r *mongoPlanRepository) GetPlanByName(ctx context.Context, name string) (*db_models.Plan, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *mongoPlanRepository) GetActivePlans(ctx context.Context) ([]db_models.Plan, error) {
	cur, err := r.coll.Find(ctx, bson.M{"is_active": true}, options.Find().SetSort(bson.D{{Key: "price_usd", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []planDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	plans := make([]db_models.Plan, 0, len(docs))
	for _, d := range docs {
		plans = append(plans, d.model())
	}
	return plans, nil
}

func (r *mongoPlanRepository) Insert(ctx context.Context, plan *db_models.Plan) error {
	plan.EnsureDefaults(time.Now())
	_, err := r.coll.InsertOne(ctx, toPlanDoc(plan))
	return err
}

type subscriptionDoc struct {
	ID                 string     `bson:"_id"`
	UserID             string     `bson:"user_id"`
	PlanID             string     `bson:"plan_id"`
	PlanName           string     `bson:"plan_name"`
	Status             string     `bson:"status"`
	BillingCycle       string     `bson:"billing_cycle"`
	Amount             float64    `bson:"amount"`
	Currency           string     `bson:"currency"`
	PaymentReference   string     `bson:"payment_reference"`
	PaymentDate        time.Time  `bson:"payment_date"`
	CurrentPeriodStart time.Time  `bson:"current_period_start"`
	CurrentPeriodEnd   time.Time  `bson:"current_period_end"`
	NextBillingDate    time.Time  `bson:"next_billing_date"`
	AutoRenew          bool       `bson:"auto_renew"`
	PaymentHistory     []string   `bson:"payment_history"`
	CancelledAt        *time.Time `bson:"cancelled_at,omitempty"`
	CancellationReason *string    `bson:"cancellation_reason,omitempty"`
	LastPaymentDate    *time.Time `bson:"last_payment_date,omitempty"`
	NextPaymentDate    *time.Time `bson:"next_payment_date,omitempty"`
	Metadata           bson.M     `bson:"metadata,omitempty"`
	CreatedAt          time.Time  `bson:"created_at"`
	UpdatedAt          time.Time  `bson:"updated_at"`
}

func toSubscriptionDoc(s *db_models.Subscription) subscriptionDoc {
	d := subscriptionDoc{
		ID:                 s.ID.String(),
		UserID:             s.UserID.String(),
		PlanID:             s.PlanID.String(),
		PlanName:           s.PlanName,
		Status:             string(s.Status),
		BillingCycle:       string(s.BillingCycle),
		Amount:             s.Amount,
		Currency:           s.Currency,
		PaymentReference:   s.PaymentReference,
		PaymentDate:        s.PaymentDate,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		NextBillingDate:    s.NextBillingDate,
		AutoRenew:          s.AutoRenew,
		PaymentHistory:     []string(s.PaymentHistory),
		CancelledAt:        s.CancelledAt,
		CancellationReason: s.CancellationReason,
		LastPaymentDate:    s.LastPaymentDate,
		NextPaymentDate:    s.NextPaymentDate,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
	if len(s.Metadata) > 0 {
		var meta bson.M
		if err := json.Unmarshal(s.Metadata, &meta); err == nil {
			d.Metadata = meta
		}
	}
	return d
}

func (d subscriptionDoc) model() db_models.Subscription {
	s := db_models.Subscription{
		PlanName:           d.PlanName,
		Status:             db_models.SubscriptionStatus(d.Status),
		BillingCycle:       entitlement.BillingCycle(d.BillingCycle),
		Amount:             d.Amount,
		Currency:           d.Currency,
		PaymentReference:   d.PaymentReference,
		PaymentDate:        d.PaymentDate,
		CurrentPeriodStart: d.CurrentPeriodStart,
		CurrentPeriodEnd:   d.CurrentPeriodEnd,
		NextBillingDate:    d.NextBillingDate,
		AutoRenew:          d.AutoRenew,
		PaymentHistory:     d.PaymentHistory,
		CancelledAt:        d.CancelledAt,
		CancellationReason: d.CancellationReason,
		LastPaymentDate:    d.LastPaymentDate,
		NextPaymentDate:    d.NextPaymentDate,
	}
	s.ID, _ = uuid.Parse(d.ID)
	s.UserID, _ = uuid.Parse(d.UserID)
	s.PlanID, _ = uuid.Parse(d.PlanID)
	s.CreatedAt, s.UpdatedAt = d.CreatedAt, d.UpdatedAt
	if len(d.Metadata) > 0 {
		if b, err := json.Marshal(d.Metadata); err == nil {
			s.Metadata = b
		}
	}
	return s
}

type mongoSubscriptionRepository struct {
	coll *mongo.Collection
}

func NewMongoSubscriptionRepository(db *mongo.Database) SubscriptionRepository {
	return &mongoSubscriptionRepository{coll: db.Collection(infra.CollSubscriptions)}
}

// CreateSuperseding runs as two writes; standalone mongo deployments have no
// multi-document transactions. The cancel runs first so a failed insert never
// leaves two active records.
func (r *mongoSubscriptionRepository) CreateSuperseding(ctx context.Context, sub *db_models.Subscription, reason string) error {
	sub.EnsureDefaults(time.Now())
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"user_id": sub.UserID.String(), "status": string(db_models.SubStatusActive)},
		bson.M{"$set": bson.M{
			"status":              string(db_models.SubStatusCancelled),
			"cancelled_at":        sub.CreatedAt,
			"cancellation_reason": reason,
			"updated_at":          sub.CreatedAt,
		}},
	)
	if err != nil {
		return err
	}
	_, err = r.coll.InsertOne(ctx, toSubscriptionDoc(sub))
	return err
}

func (r *mongoSubscriptionRepository) findOne(ctx context.Context, filter bson.M, opts ...options.Lister[options.FindOneOptions]) (*db_models.Subscription, error) {
	var d subscriptionDoc
	if err := r.coll.FindOne(ctx, filter, opts...).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	s := d.model()
	return &s, nil
}

func (r *mongoSubscriptionRepository) FindById(ctx context.Context, id string) (*db_models.Subscription, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoSubscriptionRepository) FindLatestByUser(ctx context.Context, userID uuid.UUID, status db_models.SubscriptionStatus) (*db_models.Subscription, error) {
	return r.findOne(ctx,
		bson.M{"user_id": userID.String(), "status": string(status)},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}),
	)
}

func (r *mongoSubscriptionRepository) FindByPaymentReference(ctx context.Context, reference string) (*db_models.Subscription, error) {
	return r.findOne(ctx,
		bson.M{"payment_history": reference},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
}

func (r *mongoSubscriptionRepository) AdvancePeriod(ctx context.Context, id uuid.UUID, expectedEnd time.Time, adv PeriodAdvance) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String(), "current_period_end": expectedEnd},
		bson.M{
			"$push": bson.M{"payment_history": adv.Reference},
			"$set": bson.M{
				"current_period_start": adv.Start,
				"current_period_end":   adv.End,
				"next_billing_date":    adv.End,
				"next_payment_date":    adv.End,
				"last_payment_date":    adv.PaymentDate,
				"updated_at":           adv.UpdatedAt,
			},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *mongoSubscriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (bool, error) {
	set := bson.M{"status": string(upd.Status), "updated_at": upd.UpdatedAt}
	if upd.CancelledAt != nil {
		set["cancelled_at"] = *upd.CancelledAt
		set["cancellation_reason"] = upd.Reason
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoSubscriptionRepository) find(ctx context.Context, filter bson.M, sortKey string) ([]db_models.Subscription, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: sortKey, Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []subscriptionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	subs := make([]db_models.Subscription, 0, len(docs))
	for _, d := range docs {
		subs = append(subs, d.model())
	}
	return subs, nil
}

func (r *mongoSubscriptionRepository) ListActiveEndingBefore(ctx context.Context, t time.Time) ([]db_models.Subscription, error) {
	return r.find(ctx, bson.M{
		"status":             string(db_models.SubStatusActive),
		"current_period_end": bson.M{"$lt": t},
	}, "current_period_end")
}

func (r *mongoSubscriptionRepository) ListActiveRenewingBetween(ctx context.Context, from, to time.Time) ([]db_models.Subscription, error) {
	return r.find(ctx, bson.M{
		"status":            string(db_models.SubStatusActive),
		"next_payment_date": bson.M{"$gte": from, "$lte": to},
	}, "next_payment_date")
}

func (r *mongoSubscriptionRepository) ActiveStats(ctx context.Context) (SubscriptionStats, error) {
	active, err := r.find(ctx, bson.M{"status": string(db_models.SubStatusActive)}, "created_at")
	if err != nil {
		return SubscriptionStats{}, err
	}
	return summarize(active), nil
}

type mongoResumeRepository struct {
	coll *mongo.Collection
}

func NewMongoResumeRepository(db *mongo.Database) ResumeRepository {
	return &mongoResumeRepository{coll: db.Collection(infra.CollResumes)}
}

func (r *mongoResumeRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"user_id": userID.String()})
}
