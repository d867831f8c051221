package object_test

import (
	"recordkit/internal/pipeline"
	"recordkit/internal/schema"
	"recordkit/internal/store"
	"recordkit/internal/value"
)

// greetingPipeline backs User's cached "greeting" property, used to exercise
// spec.md §3 invariant 4 (cached properties evict when a dependency field
// changes).
func greetingPipeline() *pipeline.Pipeline {
	return pipeline.New().Append("greeting", pipeline.Func{
		FuncName: "greeting",
		Fn: func(ctx pipeline.Ctx, _ pipeline.Arguments) (pipeline.Output, error) {
			name, _ := ctx.Object.GetScalar("name")
			s, _ := name.AsString()
			return pipeline.Transform(value.String("Hello, " + s)), nil
		},
	}, nil)
}

// buildBlogSchema wires User/Post/Profile/Tag/PostTag together exercising
// all three relation kinds: Post.author owns its FK, User.profile is a
// reverse one-to-one, and Post.tags/Tag.posts go through the PostTag join
// model — the same shape SPEC_FULL.md's demo schema describes.
func buildBlogSchema() *schema.Registry {
	b := schema.NewBuilder()

	b.AddModel("User", "users").
		Field(&schema.Field{Name: "id", ColumnName: "id", Type: value.KindString, Auto: true, Optionality: schema.Optional(), Write: schema.WriteOnCreateRule(), Read: schema.ReadYesRule()}).
		Field(&schema.Field{Name: "name", ColumnName: "name", Type: value.KindString, Optionality: schema.Required(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule(), Previous: schema.PreviousKeep}).
		Relation(&schema.Relation{Name: "posts", ModelPath: "Post", IsVec: true, References: []string{"userId"}, DeleteRule: schema.DeleteCascade}).
		Relation(&schema.Relation{Name: "profile", ModelPath: "Profile", IsVec: false, IsRequired: false, References: []string{"userId"}, DeleteRule: schema.DeleteNullify}).
		Property(&schema.Property{Name: "greeting", Cached: true, Getter: greetingPipeline(), Dependencies: []string{"name"}}).
		PrimaryIndex("id")

	b.AddModel("Post", "posts").
		Field(&schema.Field{Name: "id", ColumnName: "id", Type: value.KindString, Auto: true, Optionality: schema.Optional(), Write: schema.WriteOnCreateRule(), Read: schema.ReadYesRule()}).
		Field(&schema.Field{Name: "title", ColumnName: "title", Type: value.KindString, Optionality: schema.Required(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule()}).
		Field(&schema.Field{Name: "userId", ColumnName: "user_id", Type: value.KindString, ForeignKey: true, Optionality: schema.Required(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule()}).
		Relation(&schema.Relation{Name: "author", ModelPath: "User", IsVec: false, IsRequired: true, Fields: []string{"userId"}, References: []string{"id"}}).
		Relation(&schema.Relation{Name: "tags", ModelPath: "Tag", IsVec: true, Through: "PostTag", Local: "post", Foreign: "tag"}).
		PrimaryIndex("id")

	b.AddModel("Profile", "profiles").
		Field(&schema.Field{Name: "id", ColumnName: "id", Type: value.KindString, Auto: true, Optionality: schema.Optional(), Write: schema.WriteOnCreateRule(), Read: schema.ReadYesRule()}).
		Field(&schema.Field{Name: "bio", ColumnName: "bio", Type: value.KindString, Optionality: schema.Optional(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule()}).
		Field(&schema.Field{Name: "userId", ColumnName: "user_id", Type: value.KindString, ForeignKey: true, Optionality: schema.Optional(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule()}).
		Relation(&schema.Relation{Name: "user", ModelPath: "User", IsVec: false, IsRequired: false, OneToOne: true, Fields: []string{"userId"}, References: []string{"id"}}).
		PrimaryIndex("id")

	b.AddModel("Tag", "tags").
		Field(&schema.Field{Name: "id", ColumnName: "id", Type: value.KindString, Auto: true, Optionality: schema.Optional(), Write: schema.WriteOnCreateRule(), Read: schema.ReadYesRule()}).
		Field(&schema.Field{Name: "name", ColumnName: "name", Type: value.KindString, Optionality: schema.Required(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule()}).
		Relation(&schema.Relation{Name: "posts", ModelPath: "Post", IsVec: true, Through: "PostTag", Local: "tag", Foreign: "post"}).
		PrimaryIndex("id")

	b.AddModel("PostTag", "post_tags").
		Field(&schema.Field{Name: "postId", ColumnName: "post_id", Type: value.KindString, ForeignKey: true, Optionality: schema.Required(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule()}).
		Field(&schema.Field{Name: "tagId", ColumnName: "tag_id", Type: value.KindString, ForeignKey: true, Optionality: schema.Required(), Write: schema.WriteYesRule(), Read: schema.ReadYesRule()}).
		Relation(&schema.Relation{Name: "post", ModelPath: "Post", IsVec: false, Fields: []string{"postId"}, References: []string{"id"}}).
		Relation(&schema.Relation{Name: "tag", ModelPath: "Tag", IsVec: false, Fields: []string{"tagId"}, References: []string{"id"}}).
		PrimaryIndex("postId", "tagId")

	return b.Build()
}

func blogIDColumns() map[store.ModelName]string {
	return map[store.ModelName]string{
		"User":    "id",
		"Post":    "id",
		"Profile": "id",
		"Tag":     "id",
	}
}
