package web

const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Student Grade Management System</title>
<style>
body { font-family: sans-serif; display: flex; gap: 2em; margin: 1em; }
fieldset { min-width: 16em; }
label { display: block; margin-top: 0.5em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 2px 8px; text-align: left; }
tr:hover { background: #eef; }
.msg { padding: 4px 8px; background: #dfd; }
.msg.error { background: #fdd; }
</style>
</head>
<body>
<form method="post" action="/students">
<fieldset>
<legend>Student Information</legend>
<label>Student ID: <input name="id" size="20" value="{{.Form.ID}}"></label>
<label>Student Name: <input name="name" size="20" value="{{.Form.Name}}"></label>
<label>Mathematics: <input name="mathematics" size="5" value="{{.Form.Mathematics}}"></label>
<label>OS: <input name="os" size="5" value="{{.Form.OS}}"></label>
<label>DBMS: <input name="dbms" size="5" value="{{.Form.DBMS}}"></label>
<p>
<button type="submit">Add</button>
<button type="submit" formaction="/students/update">Update</button>
<button type="submit" formaction="/students/delete" onclick="return confirm('Are you sure you want to delete this record?')">Delete</button>
<a href="/">Clear</a>
</p>
</fieldset>
{{if .Message}}<p class="msg{{if .IsError}} error{{end}}">{{.Message}}</p>{{end}}
</form>
<fieldset>
<legend>Student Records</legend>
<table>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Records}}<tr>
<td><a href="/?id={{.ID}}">{{.ID}}</a></td><td>{{.Name}}</td><td>{{.Mathematics}}</td><td>{{.OS}}</td><td>{{.DBMS}}</td>
</tr>{{end}}
</table>
</fieldset>
</body>
</html>
`
