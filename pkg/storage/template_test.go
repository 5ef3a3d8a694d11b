package storage

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caiolrosa/req/pkg/editor"
	"github.com/caiolrosa/req/pkg/templating"
)

const checkoutDoc = `{"url":"https://shop.test/checkout","method":"POST","headers":{"Content-Type":"application/json"},"body":{"id":"{{order_id}}"}}`

func TestCheckoutScenario(t *testing.T) {
	for name, newFS := range filesystems(t) {
		t.Run(name, func(t *testing.T) {
			env := newEnvOn(newFS())
			p := env.mustProject(t, "shop")
			tpl := env.mustTemplate(t, p, "checkout", checkoutDoc)

			v, err := env.store.Projects.CurrentVariable(p)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"order_id": ""}, v.Contents)

			require.NoError(t, env.store.Variables.Set(v, "order_id", "42"))

			req, err := env.store.Templates.RequestWithVariables(p, tpl)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"id": "42"}, req.Body)
			assert.Equal(t, MethodPost, req.Method)
			assert.Equal(t, "https://shop.test/checkout", req.URL)

			stored, err := env.store.Templates.Load(p, "checkout")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"id": "{{order_id}}"}, stored.Request.Body, "substitution never touches the stored template")
		})
	}
}

func TestTemplateStore_SaveKeepsRegisteredValues(t *testing.T) {
	env := newEnv(t)
	p := env.mustProject(t, "shop")
	tpl := env.mustTemplate(t, p, "checkout", checkoutDoc)

	v, err := env.store.Projects.CurrentVariable(p)
	require.NoError(t, err)
	require.NoError(t, env.store.Variables.Set(v, "order_id", "7"))

	require.NoError(t, env.store.Templates.Save(tpl))
	require.NoError(t, env.store.Templates.Save(tpl))

	stored, err := env.store.Variables.Load("shop", v.Name)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"order_id": "7"}, stored.Contents)
}

func TestTemplateStore_SaveRegistersOnCallerProject(t *testing.T) {
	env := newEnv(t)
	p := env.mustProject(t, "shop")
	tpl := env.mustTemplate(t, p, "checkout", checkoutDoc)

	tpl.Request.Headers["Authorization"] = "Bearer {{token}}"
	require.NoError(t, env.store.Templates.SaveIn(p, tpl))

	v, err := env.store.Projects.CurrentVariable(p)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"order_id": "", "token": ""}, v.Contents)

	other := env.mustProject(t, "billing")
	assert.Error(t, env.store.Templates.SaveIn(other, tpl))
}

func TestTemplateStore_CreateAbort(t *testing.T) {
	env := newEnv(t)
	p := env.mustProject(t, "shop")

	env.editor.queue(abort())
	tpl, err := env.store.Templates.Create(p, "checkout")
	assert.ErrorIs(t, err, editor.ErrEditAborted)
	require.NotNil(t, tpl)

	assert.JSONEq(t, `{"url":"","method":"GET","headers":{},"body":null}`, env.readFile(t, tpl.Path))

	loaded, err := env.store.Templates.Load(p, "checkout")
	require.NoError(t, err)
	assert.Equal(t, DefaultRequest(), loaded.Request)

	_, err = env.store.Templates.Create(p, "checkout")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestTemplateStore_CreateErrors(t *testing.T) {
	env := newEnv(t)
	p := env.mustProject(t, "shop")

	_, err := env.store.Templates.Create(p, "../escape")
	assert.ErrorIs(t, err, ErrInvalidName)

	ghost := &Project{Name: "ghost", Path: "ghost", selected: noSelection}
	_, err = env.store.Templates.Create(ghost, "checkout")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTemplateStore_Edit(t *testing.T) {
	env := newEnv(t)
	p := env.mustProject(t, "shop")
	tpl := env.mustTemplate(t, p, "checkout", checkoutDoc)
	before := tpl.Request

	tests := []struct {
		name    string
		reply   func(string) (string, error)
		wantErr error
	}{
		{name: "not json", reply: reply("{not json"), wantErr: ErrMalformedDocument},
		{name: "missing url", reply: reply(`{"method":"GET","headers":{}}`), wantErr: ErrMalformedDocument},
		{name: "unknown method", reply: reply(`{"url":"","method":"TRACE","headers":{}}`), wantErr: ErrMalformedDocument},
		{name: "non string header", reply: reply(`{"url":"","method":"GET","headers":{"X":1}}`), wantErr: ErrMalformedDocument},
		{name: "trailing data", reply: reply(`{"url":"","method":"GET","headers":{}} {}`), wantErr: ErrMalformedDocument},
		{name: "aborted", reply: abort(), wantErr: editor.ErrEditAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.editor.queue(tt.reply)
			err := env.store.Templates.Edit(tpl)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, tpl.Request)
		})
	}
}

func TestTemplateStore_EditNormalizesEmptyBody(t *testing.T) {
	env := newEnv(t)
	p := env.mustProject(t, "shop")
	tpl := env.mustTemplate(t, p, "checkout", `{"url":"https://shop.test","method":"PUT","headers":{},"body":{}}`)

	assert.Nil(t, tpl.Request.Body)
	assert.JSONEq(t, `{"url":"https://shop.test","method":"PUT","headers":{},"body":null}`, env.readFile(t, tpl.Path))

	env.editor.queue(reply(`{"url":"https://shop.test","method":"PUT","headers":{},"body":{"qty":3}}`))
	require.NoError(t, env.store.Templates.Edit(tpl))
	assert.Equal(t, map[string]any{"qty": json.Number("3")}, tpl.Request.Body)

	assert.Contains(t, env.editor.seen[len(env.editor.seen)-1], "\n  \"url\"", "editor gets an indented document")
}

func TestTemplateStore_LoadErrors(t *testing.T) {
	env := newEnv(t)
	p := env.mustProject(t, "shop")

	_, err := env.store.Templates.Load(p, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, util.WriteFile(env.fs, filepath.Join("shop", "broken.json"), []byte(`{"url":1}`), 0644))
	_, err = env.store.Templates.Load(p, "broken")
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestTemplateStore_List(t *testing.T) {
	env := newEnv(t)
	p := env.mustProject(t, "shop")
	env.mustTemplate(t, p, "checkout", checkoutDoc)
	env.mustTemplate(t, p, "cart", `{"url":"https://shop.test/cart","method":"GET","headers":{},"body":null}`)

	require.NoError(t, util.WriteFile(env.fs, filepath.Join("shop", ".tmp-123"), []byte("{}"), 0644))
	require.NoError(t, util.WriteFile(env.fs, filepath.Join("shop", "notes.txt"), []byte("hi"), 0644))

	names, err := env.store.Templates.List(p)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"checkout", "cart"}, names)
}

func TestTemplateStore_Rename(t *testing.T) {
	env := newEnv(t)
	p := env.mustProject(t, "shop")
	tpl := env.mustTemplate(t, p, "checkout", checkoutDoc)
	env.mustTemplate(t, p, "cart", `{"url":"","method":"GET","headers":{},"body":null}`)

	assert.ErrorIs(t, env.store.Templates.Rename(tpl, "cart"), ErrAlreadyExists)
	assert.ErrorIs(t, env.store.Templates.Rename(tpl, "a/b"), ErrInvalidName)

	require.NoError(t, env.store.Templates.Rename(tpl, "pay"))
	assert.Equal(t, "pay", tpl.Name)
	assert.Equal(t, filepath.Join("shop", "pay.json"), tpl.Path)

	_, err := env.store.Templates.Load(p, "checkout")
	assert.ErrorIs(t, err, ErrNotFound)
	loaded, err := env.store.Templates.Load(p, "pay")
	require.NoError(t, err)
	assert.Equal(t, tpl.Request, loaded.Request)
}

func TestTemplateStore_Relocate(t *testing.T) {
	for name, newFS := range fileMovers(t) {
		t.Run(name, func(t *testing.T) {
			env := newEnvOn(newFS())
			shop := env.mustProject(t, "shop")
			billing := env.mustProject(t, "billing")
			tpl := env.mustTemplate(t, shop, "checkout", checkoutDoc)
			env.mustTemplate(t, billing, "invoice", `{"url":"","method":"GET","headers":{},"body":null}`)

			assert.ErrorIs(t, env.store.Templates.Relocate(tpl, billing, "invoice"), ErrAlreadyExists)

			require.NoError(t, env.store.Templates.Relocate(tpl, billing, ""))
			assert.Equal(t, "billing", tpl.Project)
			assert.Equal(t, "checkout", tpl.Name)

			require.NoError(t, env.store.Templates.Relocate(tpl, shop, "pay"))
			assert.Equal(t, "shop", tpl.Project)
			assert.Equal(t, "pay", tpl.Name)
			assert.Equal(t, filepath.Join("shop", "pay.json"), tpl.Path)

			names, err := env.store.Templates.List(billing)
			require.NoError(t, err)
			assert.Equal(t, []string{"invoice"}, names)

			loaded, err := env.store.Templates.Load(shop, "pay")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"id": "{{order_id}}"}, loaded.Request.Body)

			found, err := exists(env.fs, filepath.Join("billing", "checkout.json"))
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestTemplateStore_Delete(t *testing.T) {
	env := newEnv(t)
	p := env.mustProject(t, "shop")
	tpl := env.mustTemplate(t, p, "checkout", checkoutDoc)
	path := tpl.Path

	require.NoError(t, env.store.Templates.Delete(tpl))
	assert.Equal(t, Template{}, *tpl)

	found, err := exists(env.fs, path)
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, env.store.Templates.Delete(&Template{Name: "x", Project: "shop", Path: path}), ErrNotFound)
}

func TestTemplateStore_Resolve(t *testing.T) {
	env := newEnv(t)
	p := env.mustProject(t, "shop")
	tpl := env.mustTemplate(t, p, "checkout", checkoutDoc)
	gen := env.mustTemplate(t, p, "ping", `{"url":"https://shop.test/ping/{{gen:uuid}}","method":"GET","headers":{},"body":null}`)

	fresh, err := env.store.Projects.Get("shop")
	require.NoError(t, err)

	_, err = env.store.Templates.Resolve(fresh, tpl)
	assert.ErrorIs(t, err, ErrNoSelection)

	resolved, err := env.store.Templates.Resolve(fresh, gen)
	require.NoError(t, err)
	uuidURL := regexp.MustCompile(`https://shop\.test/ping/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	assert.Regexp(t, uuidURL, resolved)

	_, err = env.store.Projects.CreateVariable(fresh, "empty")
	require.NoError(t, err)
	_, err = env.store.Templates.Resolve(fresh, tpl)
	assert.ErrorIs(t, err, templating.ErrUnresolvedPlaceholder)

	other := env.mustProject(t, "billing")
	_, err = env.store.Templates.Resolve(other, tpl)
	assert.Error(t, err)
}

func TestTemplateStore_RequestWithVariablesReview(t *testing.T) {
	env := newEnv(t)
	p := env.mustProject(t, "shop")
	tpl := env.mustTemplate(t, p, "checkout", checkoutDoc)
	require.NoError(t, env.store.Variables.Set(mustCurrent(t, env, p), "order_id", `a"b`))

	env.editor.queue(func(initial string) (string, error) {
		assert.Contains(t, initial, `"id": "a\"b"`)
		return `{"url":"https://shop.test/checkout","method":"PATCH","headers":{},"body":{"id":"reviewed"}}`, nil
	})
	req, err := env.store.Templates.RequestWithVariables(p, tpl)
	require.NoError(t, err)
	assert.Equal(t, MethodPatch, req.Method)
	assert.Equal(t, map[string]any{"id": "reviewed"}, req.Body)

	env.editor.queue(abort())
	_, err = env.store.Templates.RequestWithVariables(p, tpl)
	assert.ErrorIs(t, err, editor.ErrEditAborted)
}

func TestTemplate_YAML(t *testing.T) {
	tpl := &Template{Name: "checkout", Request: Request{
		URL:     "https://shop.test",
		Method:  MethodPost,
		Headers: map[string]string{"Accept": "application/json"},
		Body:    map[string]any{"qty": json.Number("3")},
	}}

	out, err := tpl.YAML()
	require.NoError(t, err)
	assert.Contains(t, out, "url: https://shop.test")
	assert.Contains(t, out, "method: POST")
	assert.Contains(t, out, "qty: 3")
}

func mustCurrent(t *testing.T, env *testEnv, p *Project) *Variable {
	t.Helper()
	v, err := env.store.Projects.CurrentVariable(p)
	require.NoError(t, err)
	return v
}
