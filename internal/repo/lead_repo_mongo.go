package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lead-crm/internal/domain"
)

type noteDoc struct {
	Text      string             `bson:"text"`
	CreatedBy primitive.ObjectID `bson:"created_by"`
	CreatedAt time.Time          `bson:"created_at"`
}

type leadDoc struct {
	ID         primitive.ObjectID  `bson:"_id"`
	Name       string              `bson:"name"`
	Email      string              `bson:"email"`
	Phone      string              `bson:"phone"`
	Status     string              `bson:"status"`
	AssignedTo *primitive.ObjectID `bson:"assigned_to"`
	CreatedBy  primitive.ObjectID  `bson:"created_by"`
	Notes      []noteDoc           `bson:"notes"`
	CreatedAt  time.Time           `bson:"created_at"`
	UpdatedAt  time.Time           `bson:"updated_at"`
}

func notesToDomain(ns []noteDoc) []domain.Note {
	out := make([]domain.Note, 0, len(ns))
	for _, n := range ns {
		out = append(out, domain.Note{Text: n.Text, CreatedBy: n.CreatedBy.Hex(), CreatedAt: n.CreatedAt})
	}
	return out
}

func (d leadDoc) toDomain() domain.Lead {
	l := domain.Lead{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		Status:    domain.LeadStatus(d.Status),
		CreatedBy: d.CreatedBy.Hex(),
		Notes:     notesToDomain(d.Notes),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.AssignedTo != nil {
		a := d.AssignedTo.Hex()
		l.AssignedTo = &a
	}
	return l
}

// optionalOID converts a nullable id; a malformed id is reported as not found.
func optionalOID(id *string) (*primitive.ObjectID, error) {
	if id == nil {
		return nil, nil
	}
	oid, err := primitive.ObjectIDFromHex(*id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return &oid, nil
}

type MongoLeadRepo struct{ c *mongo.Collection }

func NewMongoLeadRepo(db *mongo.Database) *MongoLeadRepo {
	return &MongoLeadRepo{c: db.Collection(leadsCollection)}
}

func (r *MongoLeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	createdBy, err := primitive.ObjectIDFromHex(l.CreatedBy)
	if err != nil {
		return domain.ErrNotFound
	}
	assigned, err := optionalOID(l.AssignedTo)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	d := leadDoc{
		ID:         primitive.NewObjectID(),
		Name:       l.Name,
		Email:      l.Email,
		Phone:      l.Phone,
		Status:     string(l.Status),
		AssignedTo: assigned,
		CreatedBy:  createdBy,
		Notes:      []noteDoc{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := r.c.InsertOne(ctx, d); err != nil {
		return err
	}
	l.ID, l.CreatedAt, l.UpdatedAt = d.ID.Hex(), now, now
	if l.Notes == nil {
		l.Notes = []domain.Note{}
	}
	return nil
}

func (r *MongoLeadRepo) FindByID(ctx context.Context, id string) (*domain.Lead, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	var d leadDoc
	if err := r.c.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	l := d.toDomain()
	return &l, nil
}

// leadFilter builds the listing filter. ok is false when the query can match
// nothing (an assignee id that is not an ObjectID).
func leadFilter(q domain.LeadQuery) (f bson.M, ok bool) {
	f = bson.M{}
	if rx, has := searchRegex(q.Search); has {
		f["$or"] = bson.A{bson.M{"name": rx}, bson.M{"email": rx}}
	}
	if q.AssignedTo != nil {
		oid, err := primitive.ObjectIDFromHex(*q.AssignedTo)
		if err != nil {
			return nil, false
		}
		f["assigned_to"] = oid
	}
	return f, true
}

func (r *MongoLeadRepo) List(ctx context.Context, q domain.LeadQuery) ([]domain.Lead, int64, error) {
	f, ok := leadFilter(q)
	if !ok {
		return []domain.Lead{}, 0, nil
	}
	total, err := r.c.CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.c.Find(ctx, f, newestFirst(q.Offset, q.Limit))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	out := []domain.Lead{}
	for cur.Next(ctx) {
		var d leadDoc
		if err := cur.Decode(&d); err != nil {
			return nil, 0, err
		}
		out = append(out, d.toDomain())
	}
	return out, total, cur.Err()
}

func (r *MongoLeadRepo) Update(ctx context.Context, l *domain.Lead) error {
	oid, err := primitive.ObjectIDFromHex(l.ID)
	if err != nil {
		return domain.ErrNotFound
	}
	assigned, err := optionalOID(l.AssignedTo)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := r.c.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"name":        l.Name,
		"email":       l.Email,
		"phone":       l.Phone,
		"status":      string(l.Status),
		"assigned_to": assigned,
		"updated_at":  now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	l.UpdatedAt = now
	return nil
}

func (r *MongoLeadRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendNote pushes the note server-side so concurrent appends all land.
func (r *MongoLeadRepo) AppendNote(ctx context.Context, leadID string, n domain.Note) ([]domain.Note, error) {
	oid, err := primitive.ObjectIDFromHex(leadID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	author, err := primitive.ObjectIDFromHex(n.CreatedBy)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	upd := bson.M{
		"$push": bson.M{"notes": noteDoc{Text: n.Text, CreatedBy: author, CreatedAt: n.CreatedAt}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"notes": 1})

	var d leadDoc
	if err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": oid}, upd, opts).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return notesToDomain(d.Notes), nil
}
