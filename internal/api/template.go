package api

// indexTemplate renders the deduplicated job listing as a plain HTML table.
const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Job Listings</title>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    table { border-collapse: collapse; width: 100%; }
    th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
    th { background: #f0f0f0; }
    tr:nth-child(even) { background: #fafafa; }
  </style>
</head>
<body>
  <h1>Job Listings</h1>
  <p>{{len .}} jobs</p>
  <table>
    <tr>
      <th>Title</th>
      <th>Company</th>
      <th>Location</th>
      <th>Remote</th>
      <th>Salary</th>
      <th>Last Seen</th>
      <th>Status</th>
    </tr>
    {{range .}}
    <tr>
      <td><a href="{{.ApplyURL}}">{{.Title}}</a></td>
      <td>{{.CompanyName}}</td>
      <td>{{.LocationCity}}{{if .LocationState}}, {{.LocationState}}{{end}}{{if .LocationCountry}}, {{.LocationCountry}}{{end}}</td>
      <td>{{if .Remote}}yes{{else if .Hybrid}}hybrid{{else}}no{{end}}</td>
      <td>{{if .SalaryMin}}{{.SalaryMin}}{{if .SalaryMax}} - {{.SalaryMax}}{{end}}{{end}}</td>
      <td>{{.LastSeen.Format "2006-01-02 15:04"}}</td>
      <td>{{.Status}}</td>
    </tr>
    {{end}}
  </table>
</body>
</html>
`
