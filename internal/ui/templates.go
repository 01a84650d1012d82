package ui

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/me/sheetify/internal/workspace"
)

// Template functions available in all templates.
var templateFuncs = template.FuncMap{
	"toneClass": func(t workspace.Tone) string {
		switch t {
		case workspace.ToneSuccess:
			return "bg-green-50 text-green-800 border-green-200"
		case workspace.ToneWarning:
			return "bg-yellow-50 text-yellow-800 border-yellow-200"
		case workspace.ToneError:
			return "bg-red-50 text-red-800 border-red-200"
		default:
			return "bg-blue-50 text-blue-800 border-blue-200"
		}
	},
	"navClass": func(active bool) string {
		if active {
			return "border-indigo-500 text-gray-900"
		}
		return "border-transparent text-gray-500 hover:border-gray-300 hover:text-gray-700"
	},
	"rows": func(s string) int {
		n := strings.Count(s, "\n") + 1
		if n < 4 {
			return 4
		}
		return n
	},
}

// renderTemplate renders a template with the given data.
func renderTemplate(w io.Writer, name string, data map[string]any) error {
	content, ok := templates[name]
	if !ok {
		return fmt.Errorf("template not found: %s", name)
	}

	layout, ok := templates["layout"]
	if !ok {
		return fmt.Errorf("layout template not found")
	}

	tmpl, err := template.New("layout").Funcs(templateFuncs).Parse(layout)
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	if _, err := tmpl.New("content").Parse(content); err != nil {
		return fmt.Errorf("parse content: %w", err)
	}

	return tmpl.Execute(w, data)
}

// templates holds all page content, keyed by name. Each page defines
// "content", which the layout embeds.
var templates = map[string]string{
	"layout": `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-50 min-h-screen">
    <nav class="bg-white shadow-sm border-b">
        <div class="max-w-7xl mx-auto px-4 sm:px-6 lg:px-8">
            <div class="flex justify-between h-16">
                <div class="flex">
                    <a href="/" class="flex items-center px-2 py-2 text-xl font-bold text-indigo-600">Sheetify</a>
                    <div class="hidden sm:ml-6 sm:flex sm:space-x-8">
                        <a href="/" class="{{navClass (eq .Nav "tools")}} inline-flex items-center px-1 pt-1 border-b-2 text-sm font-medium">Tools</a>
                        <a href="/pipeline" class="{{navClass (eq .Nav "pipeline")}} inline-flex items-center px-1 pt-1 border-b-2 text-sm font-medium">Pipeline</a>
                    </div>
                </div>
                <div class="flex items-center">
                    {{if .Email}}<span class="text-sm text-gray-500">{{.Email}}</span>{{end}}
                </div>
            </div>
        </div>
    </nav>

    <main class="max-w-7xl mx-auto py-6 sm:px-6 lg:px-8">
        {{template "content" .}}
    </main>
</body>
</html>`,

	"workspace": `{{define "content"}}
{{$v := .View}}
<div class="px-4 py-6 sm:px-0">
    <div id="status" data-tone="{{$v.Status.Tone}}" class="mb-6 rounded-md border px-4 py-3 text-sm {{toneClass $v.Status.Tone}}">
        {{if $v.Status.Message}}{{$v.Status.Message}}{{else}}&nbsp;{{end}}
    </div>

    <form action="/tools" method="POST" class="mb-6 bg-white shadow rounded-lg p-4">
        <label for="prompt" class="block text-sm font-medium text-gray-700">Describe a tool</label>
        <textarea id="prompt" name="prompt" rows="3"
                  class="mt-1 block w-full rounded-md border-gray-300 shadow-sm sm:text-sm"
                  placeholder="Track weekly KPIs from the sales sheet"></textarea>
        <div class="mt-3 flex space-x-3">
            <button type="submit" {{if $v.Loading}}disabled{{end}}
                    class="px-4 py-2 text-sm font-medium rounded-md text-white bg-indigo-600 hover:bg-indigo-700">Generate</button>
            <button type="submit" formaction="/tools/refresh" {{if $v.Loading}}disabled{{end}}
                    class="px-4 py-2 text-sm font-medium rounded-md text-gray-700 bg-white border border-gray-300 hover:bg-gray-50">Refresh</button>
        </div>
    </form>

    <div class="grid grid-cols-1 gap-6 lg:grid-cols-3">
        <div class="bg-white shadow overflow-hidden sm:rounded-lg">
            <ul id="tool-list" class="divide-y divide-gray-200">
                {{range $v.Items}}
                {{if .Placeholder}}
                <li class="px-4 py-8 text-center text-gray-500">{{.Name}}</li>
                {{else}}
                <li>
                    <form action="/tools/{{.ID}}/select" method="POST">
                        <button type="submit" data-id="{{.ID}}"{{if .Active}} data-active="true"{{end}}
                                class="w-full text-left px-4 py-3 text-sm {{if .Active}}bg-indigo-50 font-semibold text-indigo-700{{else}}text-gray-900 hover:bg-gray-50{{end}}">
                            {{.Name}}
                        </button>
                    </form>
                </li>
                {{end}}
                {{end}}
            </ul>
        </div>

        <div id="tool-detail" class="lg:col-span-2 bg-white shadow sm:rounded-lg p-6">
            {{with $v.Detail}}
            {{if .Visible}}
            <h2 class="text-lg font-semibold text-gray-900">{{.Name}}</h2>
            <p class="mt-1 text-sm text-gray-600">{{.Prompt}}</p>
            <p class="mt-1 text-xs text-gray-500 font-mono">{{.ID}} &middot; {{.Created}}{{if .CreatedAgo}} ({{.CreatedAgo}}){{end}}</p>
            <h3 class="mt-6 text-sm font-medium text-gray-700">Blueprint</h3>
            <pre id="detail-blueprint" class="mt-2 bg-gray-900 text-gray-100 text-xs rounded-md p-3 overflow-x-auto">{{.Blueprint}}</pre>
            <h3 class="mt-6 text-sm font-medium text-gray-700">Memory</h3>
            <pre id="detail-memory" class="mt-2 bg-gray-900 text-gray-100 text-xs rounded-md p-3 overflow-x-auto">{{.Memory}}</pre>
            <h3 class="mt-6 text-sm font-medium text-gray-700">Storage</h3>
            <pre id="detail-storage" class="mt-2 bg-gray-900 text-gray-100 text-xs rounded-md p-3 overflow-x-auto">{{.Storage}}</pre>
            {{else}}
            <p class="text-center text-gray-500">{{.Placeholder}}</p>
            {{end}}
            {{end}}
        </div>
    </div>
</div>
{{end}}`,

	"pipeline": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <div class="mb-6">
        <h1 class="text-2xl font-semibold text-gray-900">Pipeline</h1>
        <p class="mt-1 text-sm text-gray-500">Each successful step fills the identifiers of the steps after it.</p>
    </div>

    {{if .Error}}
    <div id="banner" class="mb-6 rounded-md bg-red-50 border border-red-200 p-4">
        <div class="text-sm text-red-700">{{if .ErrorStep}}<span class="font-medium">{{.ErrorStep}}:</span> {{end}}{{.Error}}</div>
    </div>
    {{end}}

    <form action="/login" method="POST" class="mb-6 bg-white shadow rounded-lg p-4 flex items-end space-x-3">
        <div class="flex-1">
            <label for="email" class="block text-sm font-medium text-gray-700">Email</label>
            <input id="email" name="email" type="email" value="{{.Email}}"
                   class="mt-1 block w-full rounded-md border-gray-300 shadow-sm sm:text-sm">
        </div>
        <button type="submit" class="px-4 py-2 text-sm font-medium rounded-md text-white bg-indigo-600 hover:bg-indigo-700">Sign in</button>
    </form>

    <div class="space-y-6">
        {{range .Forms}}
        <section id="{{.Step}}" data-step="{{.Step}}"{{if .Errored}} data-errored="true"{{end}}
                 class="bg-white shadow rounded-lg p-4 border {{if .Errored}}border-red-400{{else}}border-transparent{{end}}">
            <h2 class="text-lg font-medium text-gray-900">{{.Title}}</h2>
            <form action="/pipeline/{{.Step}}" method="POST" class="mt-3 space-y-3">
                {{range .Inputs}}
                <div>
                    <label for="{{.Name}}" class="block text-sm font-medium text-gray-700">{{.Label}}</label>
                    {{if .Multiline}}
                    <textarea id="{{.Name}}" name="{{.Name}}" rows="{{rows .Value}}"
                              class="mt-1 block w-full rounded-md border-gray-300 shadow-sm font-mono text-xs">{{.Value}}</textarea>
                    {{else}}
                    <input id="{{.Name}}" name="{{.Name}}" type="text" value="{{.Value}}"
                           class="mt-1 block w-full rounded-md border-gray-300 shadow-sm sm:text-sm">
                    {{end}}
                </div>
                {{end}}
                <button type="submit" class="px-4 py-2 text-sm font-medium rounded-md text-white bg-indigo-600 hover:bg-indigo-700">Submit</button>
            </form>
            {{if .Output}}
            <pre class="mt-3 bg-gray-900 text-gray-100 text-xs rounded-md p-3 overflow-x-auto">{{.Output}}</pre>
            {{end}}
        </section>
        {{end}}
    </div>
</div>
{{end}}`,

	"error": `{{define "content"}}
<div class="px-4 py-6 sm:px-0">
    <div class="rounded-md bg-red-50 p-4">
        <h3 class="text-sm font-medium text-red-800">{{.Title}}</h3>
        <div class="mt-2 text-sm text-red-700">{{.Message}}</div>
    </div>
    <a href="/" class="mt-4 inline-block text-sm text-indigo-600 hover:text-indigo-800">Back to tools</a>
</div>
{{end}}`,
}
