package flyer

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const productsTimeout = 5 * time.Second

// FormRenderer renders the staff pages. A catalog failure renders the form
// with an empty product list.
type FormRenderer struct {
	tmpl     *template.Template
	products ProductLister
	log      *zap.Logger
}

func NewFormRenderer(products ProductLister, log *zap.Logger) (*FormRenderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	tmpl, err := template.New("").
		Funcs(template.FuncMap{"price": FormatPrice}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &FormRenderer{tmpl: tmpl, products: products, log: log}, nil
}

type formValues struct {
	ProductName string
	Price       string
	Unit        string
	Notes       string
}

type formPage struct {
	Title      string
	Category   Category
	Categories []Category
	Products   []string
	Values     formValues
	Error      string
	CSRFField  template.HTML
}

type adminPage struct {
	Title      string
	Categories []Category
	Entries    []Entry
	CSRFField  template.HTML
}

type section struct {
	Category Category
	Entries  []Entry
}

type publicPage struct {
	Title    string
	Sections []section
}

type authPage struct {
	Title string
	Next  string
	Error string
}

var authErrors = map[string]string{
	"bad_request":         "Não foi possível ler o formulário.",
	"missing":             "Informe e-mail e senha.",
	"short_password":      "A senha precisa ter pelo menos 8 caracteres.",
	"email_exists":        "Este e-mail já está cadastrado.",
	"invalid_credentials": "E-mail ou senha incorretos.",
	"server":              "Erro no servidor. Tente novamente.",
}

func (fr *FormRenderer) ProductNames(ctx context.Context) []string {
	if fr.products == nil {
		return []string{}
	}
	ctx, cancel := context.WithTimeout(ctx, productsTimeout)
	defer cancel()

	names, err := fr.products.ProductNames(ctx)
	if err != nil {
		fr.log.Warn("product list unavailable, rendering empty form list", zap.Error(err))
		return []string{}
	}
	return names
}

func (fr *FormRenderer) Form(w http.ResponseWriter, r *http.Request, status int, cat Category, values formValues, errMsg string) {
	if values.Unit == "" {
		values.Unit = cat.Units()[0]
	}
	fr.render(w, status, "form.html", formPage{
		Title:      cat.Label(),
		Category:   cat,
		Categories: Categories,
		Products:   fr.ProductNames(r.Context()),
		Values:     values,
		Error:      errMsg,
		CSRFField:  csrf.TemplateField(r),
	})
}

func (fr *FormRenderer) Admin(w http.ResponseWriter, r *http.Request, entries []Entry) {
	fr.render(w, http.StatusOK, "admin.html", adminPage{
		Title:      "Itens",
		Categories: Categories,
		Entries:    entries,
		CSRFField:  csrf.TemplateField(r),
	})
}

func (fr *FormRenderer) Public(w http.ResponseWriter, entries []Entry) {
	byCat := make(map[Category][]Entry, len(Categories))
	for _, e := range entries {
		byCat[e.Category] = append(byCat[e.Category], e)
	}
	sections := make([]section, 0, len(Categories))
	for _, c := range Categories {
		sections = append(sections, section{Category: c, Entries: byCat[c]})
	}
	fr.render(w, http.StatusOK, "public.html", publicPage{Title: "Ofertas", Sections: sections})
}

func (fr *FormRenderer) Auth(w http.ResponseWriter, name, title, next, errCode string) {
	fr.render(w, http.StatusOK, name, authPage{Title: title, Next: next, Error: authErrors[errCode]})
}

func (fr *FormRenderer) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := fr.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		fr.log.Error("render template failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
