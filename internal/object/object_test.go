package object_test

import (
	"context"
	"testing"

	rkaction "recordkit/internal/action"
	"recordkit/internal/object"
	"recordkit/internal/pipeline"
	"recordkit/internal/rkerr"
	"recordkit/internal/store"
	"recordkit/internal/value"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *memStore {
	return newMemStore(blogIDColumns())
}

func mustMap(pairs ...any) *value.OrderedMap {
	m := value.NewOrderedMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(value.Value))
	}
	return m
}

func TestObject_New_StartsBlank(t *testing.T) {
	reg := buildBlogSchema()
	s := newTestStore()
	u := object.New(reg, reg.MustModel("User"), rkaction.CreateSingle, s, pipeline.Request{})

	assert.True(t, u.IsNew())
	assert.False(t, u.IsInitialized())
	assert.False(t, u.IsModified())
}

func TestObject_SetFromPayload_Save_PersistsAndClearsDirtyState(t *testing.T) {
	reg := buildBlogSchema()
	s := newTestStore()
	ctx := context.Background()

	u := object.New(reg, reg.MustModel("User"), rkaction.CreateSingle, s, pipeline.Request{})
	require.NoError(t, u.SetFromPayload(ctx, mustMap("name", value.String("Ada"))))
	assert.True(t, u.IsInitialized())
	assert.True(t, u.IsModified())

	require.NoError(t, u.Save(ctx))

	assert.False(t, u.IsNew())
	assert.False(t, u.IsModified())

	id, ok := u.GetScalar("id")
	require.True(t, ok)
	idStr, _ := id.AsString()
	assert.NotEmpty(t, idStr)

	rows := s.tables["User"]
	require.Len(t, rows, 1)
	name, _ := rows[0]["name"].AsString()
	assert.Equal(t, "Ada", name)
}

func TestObject_Save_IsIdempotentWhenUnmodified(t *testing.T) {
	reg := buildBlogSchema()
	s := newTestStore()
	ctx := context.Background()

	u := object.New(reg, reg.MustModel("User"), rkaction.CreateSingle, s, pipeline.Request{})
	require.NoError(t, u.SetFromPayload(ctx, mustMap("name", value.String("Ada"))))
	require.NoError(t, u.Save(ctx))
	require.Len(t, s.tables["User"], 1)

	// invariant 4: a save that finds !is_new && !is_modified is a no-op
	require.NoError(t, u.Save(ctx))
	assert.Len(t, s.tables["User"], 1)
}

func TestObject_PreviousValue_RecordedOnceOnFirstMutation(t *testing.T) {
	reg := buildBlogSchema()
	s := newTestStore()
	ctx := context.Background()

	row := store.Row{"id": value.String("u1"), "name": value.String("Ada")}

	u := object.New(reg, reg.MustModel("User"), rkaction.UpdateSingle, s, pipeline.Request{})
	require.NoError(t, u.SetFromStoreRow(row))

	require.NoError(t, u.SetScalar("name", value.String("Grace")))
	assert.Equal(t, "Ada", mustString(u.GetPreviousValue("name")))

	// a second mutation must not overwrite the recorded previous value
	require.NoError(t, u.SetScalar("name", value.String("Hopper")))
	assert.Equal(t, "Ada", mustString(u.GetPreviousValue("name")))
}

func mustString(v value.Value) string {
	s, _ := v.AsString()
	return s
}

func TestObject_CachedProperty_EvictedWhenDependencyChanges(t *testing.T) {
	reg := buildBlogSchema()
	s := newTestStore()
	ctx := context.Background()

	u := object.New(reg, reg.MustModel("User"), rkaction.CreateSingle, s, pipeline.Request{})
	require.NoError(t, u.SetFromPayload(ctx, mustMap("name", value.String("Ada"))))

	v1, err := u.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada", mustString(v1))

	require.NoError(t, u.SetScalar("name", value.String("Grace")))

	v2, err := u.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Grace", mustString(v2))
}

func TestObject_RequiredRelation_MissingFK_ErrorsOnSave(t *testing.T) {
	reg := buildBlogSchema()
	s := newTestStore()
	ctx := context.Background()

	p := object.New(reg, reg.MustModel("Post"), rkaction.CreateSingle, s, pipeline.Request{})
	require.NoError(t, p.SetFromPayload(ctx, mustMap("title", value.String("No author"))))

	err := p.Save(ctx)
	require.Error(t, err)
	assert.True(t, rkerr.Is(err, rkerr.MissingRequiredInput))
}

func TestObject_NestedCreate_ViaUserPosts(t *testing.T) {
	reg := buildBlogSchema()
	s := newTestStore()
	ctx := context.Background()

	u := object.New(reg, reg.MustModel("User"), rkaction.CreateSingle, s, pipeline.Request{})
	postPayload := value.NewOrderedMap()
	postPayload.Set("title", value.String("First post"))
	createList := value.Array([]value.Value{value.Map(postPayload)})
	postsPayload := value.NewOrderedMap()
	postsPayload.Set("create", createList)

	require.NoError(t, u.SetFromPayload(ctx, mustMap(
		"name", value.String("Ada"),
		"posts", value.Map(postsPayload),
	)))
	require.NoError(t, u.Save(ctx))

	userID, _ := u.GetScalar("id")
	rows := s.tables["Post"]
	require.Len(t, rows, 1)
	assert.Equal(t, userID, rows[0]["user_id"])
	title, _ := rows[0]["title"].AsString()
	assert.Equal(t, "First post", title)
}

func TestObject_JoinTableConnect_CreatesJoinRow(t *testing.T) {
	reg := buildBlogSchema()
	s := newTestStore()
	ctx := context.Background()

	u := object.New(reg, reg.MustModel("User"), rkaction.CreateSingle, s, pipeline.Request{})
	require.NoError(t, u.SetFromPayload(ctx, mustMap("name", value.String("Ada"))))
	require.NoError(t, u.Save(ctx))
	userID, _ := u.GetScalar("id")

	tag := object.New(reg, reg.MustModel("Tag"), rkaction.CreateSingle, s, pipeline.Request{})
	require.NoError(t, tag.SetFromPayload(ctx, mustMap("name", value.String("go"))))
	require.NoError(t, tag.Save(ctx))
	tagID, _ := tag.GetScalar("id")

	p := object.New(reg, reg.MustModel("Post"), rkaction.CreateSingle, s, pipeline.Request{})
	tagWhere := value.NewOrderedMap()
	tagWhere.Set("id", tagID)
	tagsPayload := value.NewOrderedMap()
	tagsPayload.Set("connect", value.Array([]value.Value{value.Map(tagWhere)}))

	require.NoError(t, p.SetFromPayload(ctx, mustMap(
		"title", value.String("Tagged post"),
		"userId", userID,
		"tags", value.Map(tagsPayload),
	)))
	require.NoError(t, p.Save(ctx))

	postID, _ := p.GetScalar("id")
	joinRows := s.tables["PostTag"]
	require.Len(t, joinRows, 1)
	assert.Equal(t, postID, joinRows[0]["post_id"])
	assert.Equal(t, tagID, joinRows[0]["tag_id"])
}

func TestObject_Delete_CascadesToPostsAndNullifiesProfile(t *testing.T) {
	reg := buildBlogSchema()
	s := newTestStore()
	ctx := context.Background()

	u := object.New(reg, reg.MustModel("User"), rkaction.CreateSingle, s, pipeline.Request{})
	require.NoError(t, u.SetFromPayload(ctx, mustMap("name", value.String("Ada"))))
	require.NoError(t, u.Save(ctx))
	userID, _ := u.GetScalar("id")

	p := object.New(reg, reg.MustModel("Post"), rkaction.CreateSingle, s, pipeline.Request{})
	require.NoError(t, p.SetFromPayload(ctx, mustMap("title", value.String("x"), "userId", userID)))
	require.NoError(t, p.Save(ctx))

	profile := object.New(reg, reg.MustModel("Profile"), rkaction.CreateSingle, s, pipeline.Request{})
	require.NoError(t, profile.SetFromPayload(ctx, mustMap("bio", value.String("hi"), "userId", userID)))
	require.NoError(t, profile.Save(ctx))
	profileID, _ := profile.GetScalar("id")

	require.NoError(t, u.Delete(ctx))

	assert.Empty(t, s.tables["User"])
	assert.Empty(t, s.tables["Post"])

	require.Len(t, s.tables["Profile"], 1)
	var nulledRow map[string]value.Value
	for _, row := range s.tables["Profile"] {
		if value.Equal(row["id"], profileID) {
			nulledRow = row
		}
	}
	require.NotNil(t, nulledRow)
	assert.True(t, nulledRow["user_id"].IsNull())
}

func TestObject_ToJSON_HonorsSelection(t *testing.T) {
	reg := buildBlogSchema()
	s := newTestStore()
	ctx := context.Background()

	u := object.New(reg, reg.MustModel("User"), rkaction.CreateSingle, s, pipeline.Request{})
	require.NoError(t, u.SetFromPayload(ctx, mustMap("name", value.String("Ada"))))
	require.NoError(t, u.Save(ctx))

	u.SetSelection(map[string]bool{"name": true})
	out, err := u.ToJSON(ctx, nil)
	require.NoError(t, err)
	m, ok := out.AsMap()
	require.True(t, ok)
	assert.True(t, m.Has("name"))
	assert.False(t, m.Has("id"))
}
