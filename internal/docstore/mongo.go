package docstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo usa uma coleção do MongoDB por coleção lógica.
type Mongo struct {
	db *mongo.Database
}

// ConnectMongo abre o cliente e valida a conexão.
func ConnectMongo(ctx context.Context, uri, database string) (*Mongo, func(context.Context) error, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return &Mongo{db: client.Database(database)}, client.Disconnect, nil
}

func (m *Mongo) ListByCity(ctx context.Context, collection, cityID string) ([]Record, error) {
	cur, err := m.db.Collection(collection).Find(ctx, bson.M{FieldCityID: cityID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	records := []Record{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		records = append(records, fromBSON(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc bson.M
	err = m.db.Collection(collection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return fromBSON(doc), nil
}

func (m *Mongo) Insert(ctx context.Context, collection, cityID string, data Record) (string, error) {
	doc := bson.M{}
	for k, v := range data {
		if k == FieldID {
			continue
		}
		doc[k] = v
	}
	doc[FieldCityID] = cityID
	if _, ok := doc["criadoEm"]; !ok {
		doc["criadoEm"] = time.Now().UTC().Format(time.RFC3339)
	}

	res, err := m.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("docstore: id inesperado devolvido pelo mongo")
	}
	return oid.Hex(), nil
}

func (m *Mongo) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	set := bson.M{}
	for k, v := range fields {
		if k == FieldID || k == FieldCityID {
			continue
		}
		set[k] = v
	}
	if len(set) == 0 {
		return nil
	}

	res, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func fromBSON(doc bson.M) Record {
	rec := Record{}
	for k, v := range doc {
		if k == "_id" {
			if oid, ok := v.(primitive.ObjectID); ok {
				rec[FieldID] = oid.Hex()
			} else if s, ok := v.(string); ok {
				rec[FieldID] = s
			}
			continue
		}
		rec[k] = normalize(v)
	}
	return rec
}

// normalize converte tipos do driver em map[string]any e []any, os únicos
// formatos que o resolvedor de caminhos percorre.
func normalize(v any) any {
	switch val := v.(type) {
	case bson.M:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalize(inner)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalize(inner)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, elem := range val {
			out[elem.Key] = normalize(elem.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalize(inner)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC().Format(time.RFC3339)
	default:
		return v
	}
}
